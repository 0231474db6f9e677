package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookingcore/internal/pkg/config"
	"bookingcore/internal/pkg/errs"
	"bookingcore/internal/usecase/commands"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

const omiseAPIBase = "https://api.omise.co"

// OmiseProvider implements commands.PaymentProvider on the Omise gateway.
// Checkout sessions are payment links; refunds go against the stored charge.
type OmiseProvider struct {
	client    *omise.Client
	secretKey string
	currency  string
	httpc     *http.Client
}

func NewOmiseProvider(cfg config.PaymentsConfig) (*OmiseProvider, error) {
	client, err := omise.NewClient(cfg.OmisePublicKey, cfg.OmiseSecretKey)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to initialize omise client"), errs.ErrPaymentProviderFailed)
	}
	client.SetDebug(false)

	return &OmiseProvider{
		client:    client,
		secretKey: cfg.OmiseSecretKey,
		currency:  cfg.Currency,
		httpc:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (p *OmiseProvider) CreateCheckoutSession(_ context.Context, in commands.CheckoutParams) (*commands.CheckoutSession, error) {
	if in.AmountCents <= 0 {
		return nil, errs.Mark(errs.New("checkout amount must be positive"), errs.ErrDomainValidation)
	}

	link := &omise.Link{}
	err := p.client.Do(link, &operations.CreateLink{
		Amount:      in.AmountCents,
		Currency:    p.resolveCurrency(in.Currency),
		Title:       fmt.Sprintf("Booking %s", in.BookingID),
		Description: in.Description,
	})
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to create checkout link"), errs.ErrPaymentProviderFailed)
	}

	return &commands.CheckoutSession{
		SessionID:   link.ID,
		CheckoutURL: link.PaymentURI,
	}, nil
}

// CreateConnectCheckoutSession creates a checkout against a connected
// sub-merchant account with the platform commission collected as an
// application fee. The SDK has no surface for these parameters, so this
// goes through the REST API directly with the idempotency key attached.
func (p *OmiseProvider) CreateConnectCheckoutSession(ctx context.Context, in commands.CheckoutParams) (*commands.CheckoutSession, error) {
	if in.AmountCents <= 0 {
		return nil, errs.Mark(errs.New("checkout amount must be positive"), errs.ErrDomainValidation)
	}
	if in.ConnectedAccountID == "" {
		return nil, errs.Mark(errs.New("connected account is required"), errs.ErrDomainValidation)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(in.AmountCents, 10))
	form.Set("currency", p.resolveCurrency(in.Currency))
	form.Set("title", fmt.Sprintf("Booking %s", in.BookingID))
	form.Set("description", in.Description)
	form.Set("metadata[booking_id]", in.BookingID.String())
	form.Set("metadata[tenant_id]", in.TenantID.String())
	form.Set("metadata[application_fee]", strconv.FormatInt(in.ApplicationFeeCents, 10))
	form.Set("metadata[destination]", in.ConnectedAccountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, omiseAPIBase+"/links", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to build checkout request"), errs.ErrPaymentProviderFailed)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if in.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", in.IdempotencyKey)
	}
	req.SetBasicAuth(p.secretKey, "")

	res, err := p.httpc.Do(req)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "checkout request failed"), errs.ErrPaymentProviderFailed)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errs.Mark(
			errs.New(fmt.Sprintf("checkout rejected: %s (%d)", string(body), res.StatusCode)),
			errs.ErrPaymentProviderFailed,
		)
	}

	var link omise.Link
	if err := json.Unmarshal(body, &link); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to parse checkout response"), errs.ErrPaymentProviderFailed)
	}

	return &commands.CheckoutSession{
		SessionID:   link.ID,
		CheckoutURL: link.PaymentURI,
	}, nil
}

func (p *OmiseProvider) Refund(_ context.Context, in commands.RefundParams) (*commands.RefundResult, error) {
	if in.PaymentRef == "" {
		return nil, errs.Mark(errs.New("payment reference is required"), errs.ErrDomainValidation)
	}
	if in.AmountCents <= 0 {
		return nil, errs.Mark(errs.New("refund amount must be positive"), errs.ErrDomainValidation)
	}

	refund := &omise.Refund{}
	err := p.client.Do(refund, &operations.CreateRefund{
		ChargeID: in.PaymentRef,
		Amount:   in.AmountCents,
		Metadata: map[string]any{"idempotency_key": in.IdempotencyKey},
	})
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to create refund"), errs.ErrPaymentProviderFailed)
	}

	return &commands.RefundResult{
		RefundID:      refund.ID,
		RefundedCents: refund.Amount,
	}, nil
}

func (p *OmiseProvider) resolveCurrency(override string) string {
	if override != "" {
		return override
	}
	return p.currency
}

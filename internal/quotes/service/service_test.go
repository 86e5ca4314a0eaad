package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"offerte_delivery_backend/internal/email"
	"offerte_delivery_backend/internal/pdf"
	"offerte_delivery_backend/internal/quotes/repository"
	"offerte_delivery_backend/internal/quotes/transport"
	"offerte_delivery_backend/platform/apperr"
	"offerte_delivery_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeQuoteStore struct {
	quote    *repository.Quote
	getErr   error
	items    []repository.LineItem
	itemsErr error

	getCalls      int
	markSentCalls int
	markSentAt    time.Time
	markSentErr   error
}

func (f *fakeQuoteStore) GetByPublicID(_ context.Context, publicID string) (*repository.Quote, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.quote == nil || f.quote.PublicID != publicID {
		return nil, apperr.NotFound("quote not found")
	}
	return f.quote, nil
}

func (f *fakeQuoteStore) GetItemsByQuoteID(_ context.Context, _ uuid.UUID) ([]repository.LineItem, error) {
	return f.items, f.itemsErr
}

func (f *fakeQuoteStore) MarkSent(_ context.Context, _ uuid.UUID, sentAt time.Time) error {
	f.markSentCalls++
	f.markSentAt = sentAt
	return f.markSentErr
}

type fakeProfiles struct {
	role string
	err  error
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID uuid.UUID) (*Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Profile{UserID: userID, Role: f.role}, nil
}

type fakeRenderer struct {
	out   []byte
	err   error
	calls int
	last  pdf.RenderInput
}

func (f *fakeRenderer) Render(_ context.Context, input pdf.RenderInput) ([]byte, error) {
	f.calls++
	f.last = input
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeBrand struct {
	dark  []byte
	light []byte
	calls int
}

func (f *fakeBrand) FetchPair(_ context.Context, _ string) ([]byte, []byte) {
	f.calls++
	return f.dark, f.light
}

type sentMail struct {
	to          string
	data        email.ProposalData
	attachments []email.Attachment
}

type fakeSender struct {
	err  error
	sent []sentMail
}

func (f *fakeSender) SendQuoteProposalEmail(_ context.Context, toEmail string, data email.ProposalData, attachments ...email.Attachment) error {
	f.sent = append(f.sent, sentMail{to: toEmail, data: data, attachments: attachments})
	return f.err
}

type originCfg struct{ base string }

func (c originCfg) GetAppBaseURL() string { return c.base }

func strptr(s string) *string { return &s }

func draftQuote() *repository.Quote {
	return &repository.Quote{
		ID:           uuid.New(),
		PublicID:     "Q-00042",
		Customer:     "De Vries BV",
		ContactName:  strptr("Jan de Vries"),
		ContactEmail: "jan@devries.example",
		Title:        "Zonnepanelen installatie",
		Status:       string(transport.QuoteStatusDraft),
		TotalCents:   250000,
		CreatedAt:    time.Now(),
	}
}

type fixture struct {
	store    *fakeQuoteStore
	profiles *fakeProfiles
	renderer *fakeRenderer
	brand    *fakeBrand
	sender   *fakeSender
	cfg      originCfg
}

func newFixture() *fixture {
	return &fixture{
		store:    &fakeQuoteStore{quote: draftQuote()},
		profiles: &fakeProfiles{role: adminRole},
		renderer: &fakeRenderer{out: []byte("%PDF-1.4 test")},
		brand:    &fakeBrand{},
		sender:   &fakeSender{},
	}
}

func (f *fixture) service() *Service {
	return New(f.store, f.profiles, f.renderer, f.brand, f.sender, f.cfg, logger.New("development"))
}

func (f *fixture) serviceWithoutSender() *Service {
	return New(f.store, f.profiles, f.renderer, f.brand, nil, f.cfg, logger.New("development"))
}

func deliver(t *testing.T, svc *Service, req transport.DeliverQuoteRequest) *transport.DeliverQuoteResponse {
	t.Helper()
	resp, err := svc.Deliver(context.Background(), uuid.New(), "https://portal.example.com", req)
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	return resp
}

func TestDeliverNonAdminForbidden(t *testing.T) {
	f := newFixture()
	f.profiles.role = "agent"

	_, err := f.service().Deliver(context.Background(), uuid.New(), "https://portal.example.com", transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.store.getCalls != 0 {
		t.Error("quote was loaded before authorization")
	}
	if len(f.sender.sent) != 0 {
		t.Error("mail sent despite forbidden caller")
	}
}

func TestDeliverUnknownIdentity(t *testing.T) {
	f := newFixture()
	f.profiles.err = apperr.Unauthorized("unknown identity")

	_, err := f.service().Deliver(context.Background(), uuid.New(), "", transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestDeliverMissingQuoteID(t *testing.T) {
	f := newFixture()

	_, err := f.service().Deliver(context.Background(), uuid.New(), "", transport.DeliverQuoteRequest{QuoteID: "   "})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.store.getCalls != 0 || f.renderer.calls != 0 || len(f.sender.sent) != 0 {
		t.Error("downstream work happened for an empty quoteId")
	}
}

func TestDeliverUnknownQuote(t *testing.T) {
	f := newFixture()

	_, err := f.service().Deliver(context.Background(), uuid.New(), "", transport.DeliverQuoteRequest{QuoteID: "Q-99999"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.renderer.calls != 0 {
		t.Error("rendered a document for a missing quote")
	}
}

func TestDeliverQuoteLoadFailure(t *testing.T) {
	f := newFixture()
	f.store.getErr = errors.New("failed to query quote: connection refused")

	_, err := f.service().Deliver(context.Background(), uuid.New(), "", transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error message leaks store internals: %q", err)
	}
	if f.renderer.calls != 0 || len(f.sender.sent) != 0 {
		t.Error("pipeline continued past a failed quote load")
	}
}

func TestDeliverSuccess(t *testing.T) {
	f := newFixture()
	resp := deliver(t, f.service(), transport.DeliverQuoteRequest{QuoteID: "Q-00042"})

	if !resp.OK || resp.DryRun || resp.Warning != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(f.sender.sent))
	}
	mail := f.sender.sent[0]
	if mail.to != "jan@devries.example" {
		t.Errorf("recipient = %q", mail.to)
	}
	if mail.data.RecipientName != "Jan de Vries" {
		t.Errorf("recipient name = %q", mail.data.RecipientName)
	}
	if len(mail.attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(mail.attachments))
	}
	att := mail.attachments[0]
	if !strings.Contains(att.FileName, "Q-00042") || !strings.HasSuffix(att.FileName, ".pdf") {
		t.Errorf("attachment filename = %q", att.FileName)
	}
	if att.MIMEType != "application/pdf" {
		t.Errorf("attachment mime = %q", att.MIMEType)
	}
	if f.store.markSentCalls != 1 {
		t.Fatalf("markSent calls = %d, want 1", f.store.markSentCalls)
	}
	if f.store.markSentAt.IsZero() {
		t.Error("sent timestamp not set")
	}
}

func TestDeliverDryRunSendsNothing(t *testing.T) {
	f := newFixture()
	resp := deliver(t, f.service(), transport.DeliverQuoteRequest{QuoteID: "Q-00042", DryRun: true})

	if !resp.OK || !resp.DryRun {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if f.renderer.calls != 1 {
		t.Errorf("dry run must still render, calls = %d", f.renderer.calls)
	}
	if len(f.sender.sent) != 0 {
		t.Error("dry run sent mail")
	}
	if f.store.markSentCalls != 0 {
		t.Error("dry run mutated the quote")
	}
}

func TestDeliverUnconfiguredSenderWarns(t *testing.T) {
	f := newFixture()
	resp := deliver(t, f.serviceWithoutSender(), transport.DeliverQuoteRequest{QuoteID: "Q-00042"})

	if !resp.OK {
		t.Fatal("expected ok response")
	}
	if resp.Warning == "" {
		t.Fatal("expected a configuration warning")
	}
	if f.store.markSentCalls != 0 {
		t.Error("unconfigured delivery mutated the quote")
	}
	if f.renderer.calls != 1 {
		t.Error("document should still be rendered to validate the pipeline")
	}
}

func TestDeliverUnconfiguredSenderWarnsOnDryRun(t *testing.T) {
	f := newFixture()
	resp := deliver(t, f.serviceWithoutSender(), transport.DeliverQuoteRequest{QuoteID: "Q-00042", DryRun: true})

	if !resp.OK || !resp.DryRun {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Warning == "" {
		t.Fatal("dry run must still report the configuration warning")
	}
	if f.store.markSentCalls != 0 {
		t.Error("unconfigured dry run mutated the quote")
	}
}

func TestDeliverLogoFailureTolerated(t *testing.T) {
	f := newFixture()
	f.brand.dark = nil
	f.brand.light = nil

	resp := deliver(t, f.service(), transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if !resp.OK {
		t.Fatal("missing logos must not fail delivery")
	}
	if f.brand.calls != 1 {
		t.Errorf("brand fetch calls = %d", f.brand.calls)
	}
	if f.renderer.last.LogoDark != nil || f.renderer.last.LogoLight != nil {
		t.Error("renderer received logos that were never fetched")
	}
}

func TestDeliverRendererFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.renderer.err = errors.New("font table corrupt")

	_, err := f.service().Deliver(context.Background(), uuid.New(), "", transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(f.sender.sent) != 0 {
		t.Error("mail sent despite render failure")
	}
	if f.store.markSentCalls != 0 {
		t.Error("quote mutated despite render failure")
	}
}

func TestDeliverSendFailureSkipsCommit(t *testing.T) {
	f := newFixture()
	f.sender.err = errors.New("smtp: connection refused")

	_, err := f.service().Deliver(context.Background(), uuid.New(), "", transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if f.store.markSentCalls != 0 {
		t.Error("quote marked sent although the mail never left")
	}
}

func TestDeliverCommitFailureAfterSend(t *testing.T) {
	f := newFixture()
	f.store.markSentErr = errors.New("connection reset")

	_, err := f.service().Deliver(context.Background(), uuid.New(), "", transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(f.sender.sent) != 1 {
		t.Errorf("sent %d mails, want exactly 1", len(f.sender.sent))
	}
}

func TestDeliverContactNameFallsBackToCustomer(t *testing.T) {
	f := newFixture()
	f.store.quote.ContactName = nil

	deliver(t, f.service(), transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if got := f.sender.sent[0].data.RecipientName; got != "De Vries BV" {
		t.Errorf("recipient name = %q, want customer fallback", got)
	}
}

func TestDeliverConfiguredBaseURLWins(t *testing.T) {
	f := newFixture()
	f.cfg = originCfg{base: "https://app.example.com/"}

	svc := f.service()
	if _, err := svc.Deliver(context.Background(), uuid.New(), "https://other.example.com", transport.DeliverQuoteRequest{QuoteID: "Q-00042"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	want := "https://app.example.com/quotes/Q-00042/accept"
	if f.renderer.last.AcceptanceURL != want {
		t.Errorf("acceptance url = %q, want %q", f.renderer.last.AcceptanceURL, want)
	}
	if f.sender.sent[0].data.AcceptanceURL != want {
		t.Errorf("mail acceptance url = %q", f.sender.sent[0].data.AcceptanceURL)
	}
}

func TestDeliverRequestOriginFallback(t *testing.T) {
	f := newFixture()

	resp := deliver(t, f.service(), transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if !resp.OK {
		t.Fatal("expected ok")
	}
	want := "https://portal.example.com/quotes/Q-00042/accept"
	if f.renderer.last.AcceptanceURL != want {
		t.Errorf("acceptance url = %q, want %q", f.renderer.last.AcceptanceURL, want)
	}
}

func TestDeliverStoredSLAPreferred(t *testing.T) {
	f := newFixture()
	f.store.quote.SLAURL = strptr("https://cdn.example.com/sla/custom.pdf")

	deliver(t, f.service(), transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if got := f.renderer.last.SLAURL; got != "https://cdn.example.com/sla/custom.pdf" {
		t.Errorf("sla url = %q, want stored value", got)
	}
}

func TestDeliverDerivedSLAWithoutStoredValue(t *testing.T) {
	f := newFixture()

	deliver(t, f.service(), transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	want := "https://portal.example.com/quotes/Q-00042/terms"
	if got := f.renderer.last.SLAURL; got != want {
		t.Errorf("sla url = %q, want %q", got, want)
	}
}

func TestDeliverEmptyItemsStillDelivers(t *testing.T) {
	f := newFixture()
	f.store.items = nil

	resp := deliver(t, f.service(), transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if !resp.OK {
		t.Fatal("quote without items must still deliver")
	}
	if len(f.sender.sent) != 1 {
		t.Errorf("sent %d mails, want 1", len(f.sender.sent))
	}
}

func TestDeliverItemLoadFailure(t *testing.T) {
	f := newFixture()
	f.store.itemsErr = errors.New("relation missing")

	_, err := f.service().Deliver(context.Background(), uuid.New(), "", transport.DeliverQuoteRequest{QuoteID: "Q-00042"})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if f.renderer.calls != 0 {
		t.Error("rendered with a partial aggregate")
	}
}

package repository

import (
	"fmt"

	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/allocation"
	"github.com/amirasaad/smartledger/pkg/domain/bill"
	"github.com/amirasaad/smartledger/pkg/domain/ledger"
	"github.com/amirasaad/smartledger/pkg/domain/roundup"
	"github.com/amirasaad/smartledger/pkg/domain/webhook"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/shopspring/decimal"
)

func mapAccountToModel(a *account.Account) Account {
	return Account{
		ID:        a.ID,
		UserID:    a.UserID,
		Name:      a.Name,
		Slug:      a.Slug,
		Kind:      string(a.Kind),
		Currency:  string(a.Currency),
		Archived:  a.Archived,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func mapModelToAccount(m *Account) (*account.Account, error) {
	return account.New().
		WithID(m.ID).
		WithUserID(m.UserID).
		WithName(m.Name).
		WithSlug(m.Slug).
		WithKind(account.Kind(m.Kind)).
		WithCurrency(money.Code(m.Currency)).
		WithArchived(m.Archived).
		WithTimestamps(m.CreatedAt, m.UpdatedAt).
		Build()
}

func mapRuleToModel(r *allocation.Rule) AllocationRule {
	return AllocationRule{
		ID:          r.ID,
		UserID:      r.UserID,
		AccountID:   r.AccountID,
		BasisPoints: r.Percent.Shift(2).IntPart(),
		Active:      r.Active,
		Priority:    r.Priority,
	}
}

func mapModelToRule(m *AllocationRule) allocation.Rule {
	return allocation.Rule{
		ID:        m.ID,
		UserID:    m.UserID,
		AccountID: m.AccountID,
		Percent:   decimal.New(m.BasisPoints, -2),
		Active:    m.Active,
		Priority:  m.Priority,
	}
}

func mapTransactionToModel(t *ledger.Transaction) (Transaction, error) {
	minor, err := t.Amount.Minor()
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		Provider:    string(t.Provider),
		ProviderRef: t.ProviderRef,
		Direction:   string(t.Direction),
		Status:      string(t.Status),
		Amount:      minor,
		Currency:    string(t.Amount.Currency()),
		Meta:        t.Meta,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}, nil
}

func mapModelToTransaction(m *Transaction) *ledger.Transaction {
	meta := m.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return &ledger.Transaction{
		ID:          m.ID,
		UserID:      m.UserID,
		Provider:    provider.Provider(m.Provider),
		Direction:   ledger.Direction(m.Direction),
		Status:      ledger.Status(m.Status),
		Amount:      money.FromMinor(money.Code(m.Currency), m.Amount),
		ProviderRef: m.ProviderRef,
		Meta:        meta,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func mapEntryToModel(e ledger.Entry) (LedgerEntry, error) {
	minor, err := e.Amount.Minor()
	if err != nil {
		return LedgerEntry{}, err
	}
	if minor <= 0 {
		return LedgerEntry{}, fmt.Errorf("%w: entry amount %d", ledger.ErrInvalidLine, minor)
	}
	return LedgerEntry{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		AccountID:     e.AccountID,
		EntryType:     string(e.Type),
		Amount:        minor,
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
	}, nil
}

// Entries do not carry a currency column; it is restored from the transaction.
func mapModelToEntry(m *LedgerEntry, currency money.Code) ledger.Entry {
	return ledger.Entry{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		Type:          ledger.EntryType(m.EntryType),
		Amount:        money.FromMinor(currency, m.Amount),
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
}

func mapBillToModel(b *bill.Bill) (UserBill, error) {
	minor, err := b.Amount.Minor()
	if err != nil {
		return UserBill{}, err
	}
	return UserBill{
		ID:            b.ID,
		UserID:        b.UserID,
		Name:          b.Name,
		Category:      b.Category,
		Amount:        minor,
		Currency:      string(b.Amount.Currency()),
		Frequency:     string(b.Frequency),
		DueDay:        b.DueDay,
		MerchantCode:  b.MerchantCode,
		AccountNumber: b.AccountNumber,
		AutoPay:       b.AutoPay,
		Active:        b.Active,
		NextDueDate:   b.NextDueDate,
		LastPaidAt:    b.LastPaidAt,
		Meta:          b.Meta,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}, nil
}

func mapModelToBill(m *UserBill) *bill.Bill {
	return &bill.Bill{
		ID:            m.ID,
		UserID:        m.UserID,
		Name:          m.Name,
		Category:      m.Category,
		Amount:        money.FromMinor(money.Code(m.Currency), m.Amount),
		Frequency:     bill.Frequency(m.Frequency),
		DueDay:        m.DueDay,
		MerchantCode:  m.MerchantCode,
		AccountNumber: m.AccountNumber,
		AutoPay:       m.AutoPay,
		Active:        m.Active,
		NextDueDate:   m.NextDueDate,
		LastPaidAt:    m.LastPaidAt,
		Meta:          m.Meta,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func mapPaymentToModel(p *bill.Payment) (BillPayment, error) {
	minor, err := p.Amount.Minor()
	if err != nil {
		return BillPayment{}, err
	}
	return BillPayment{
		ID:            p.ID,
		BillID:        p.BillID,
		TransactionID: p.TransactionID,
		Amount:        minor,
		Currency:      string(p.Amount.Currency()),
		Status:        string(p.Status),
		DueDate:       p.DueDate,
		PaidAt:        p.PaidAt,
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

func mapModelToPayment(m *BillPayment) *bill.Payment {
	return &bill.Payment{
		ID:            m.ID,
		BillID:        m.BillID,
		TransactionID: m.TransactionID,
		Amount:        money.FromMinor(money.Code(m.Currency), m.Amount),
		Status:        bill.PaymentStatus(m.Status),
		DueDate:       m.DueDate,
		PaidAt:        m.PaidAt,
		FailureReason: m.FailureReason,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func mapRoundupToModel(s *roundup.Setting) (RoundupSetting, error) {
	m := RoundupSetting{
		ID:               s.ID,
		UserID:           s.UserID,
		Enabled:          s.Enabled,
		RoundTo:          s.RoundTo,
		SavingsAccountID: s.SavingsAccountID,
		Currency:         string(money.DefaultCurrency),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.MonthlyLimit != nil {
		minor, err := s.MonthlyLimit.Minor()
		if err != nil {
			return RoundupSetting{}, err
		}
		m.MonthlyLimit = &minor
		m.Currency = string(s.MonthlyLimit.Currency())
	}
	return m, nil
}

func mapModelToRoundup(m *RoundupSetting) *roundup.Setting {
	s := &roundup.Setting{
		ID:               m.ID,
		UserID:           m.UserID,
		Enabled:          m.Enabled,
		RoundTo:          m.RoundTo,
		SavingsAccountID: m.SavingsAccountID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.MonthlyLimit != nil {
		limit := money.FromMinor(money.Code(m.Currency), *m.MonthlyLimit)
		s.MonthlyLimit = &limit
	}
	return s
}

func mapWebhookToModel(e *webhook.Event) WebhookEvent {
	return WebhookEvent{
		ID:            e.ID,
		Provider:      string(e.Provider),
		EventType:     e.EventType,
		Signature:     e.Signature,
		Headers:       e.Headers,
		Payload:       string(e.Payload),
		UserID:        e.UserID,
		Status:        string(e.Status),
		Attempts:      e.Attempts,
		LastError:     e.LastError,
		TransactionID: e.TransactionID,
		ProcessedAt:   e.ProcessedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func mapModelToWebhook(m *WebhookEvent) *webhook.Event {
	return &webhook.Event{
		ID:            m.ID,
		Provider:      provider.Provider(m.Provider),
		EventType:     m.EventType,
		Signature:     m.Signature,
		Headers:       m.Headers,
		Payload:       []byte(m.Payload),
		UserID:        m.UserID,
		Status:        webhook.Status(m.Status),
		Attempts:      m.Attempts,
		LastError:     m.LastError,
		TransactionID: m.TransactionID,
		ProcessedAt:   m.ProcessedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

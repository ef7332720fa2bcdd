package service

import (
	"context"
	"strconv"
	"strings"

	"carrental/internal/domain"
	"carrental/internal/events"
	"carrental/internal/models"
	"carrental/internal/store"

	"github.com/rs/zerolog"
)

var _ domain.AccountService = (*AccountService)(nil)

type AccountService struct {
	store    *store.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewAccountService(st *store.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *AccountService {
	return &AccountService{store: st, eventBus: publisherOrNop(eventBus), logger: logger}
}

// SignUp registers a new account and logs it in.
func (s *AccountService) SignUp(ctx context.Context, name, email, password string) (models.Account, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return models.Account{}, domain.ErrInvalidInput
	}

	var created models.Account
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		for _, a := range snap.Accounts {
			if a.Name == name {
				return domain.ErrDuplicateName
			}
			if a.Email == email {
				return domain.ErrDuplicateEmail
			}
		}

		acc := models.Account{
			ID:       strconv.Itoa(len(snap.Accounts)),
			Name:     name,
			Email:    email,
			Password: password,
		}
		acc.Touch(s.store.Now())
		snap.Accounts = append(snap.Accounts, acc)
		current := acc.Clone()
		snap.CurrentAccount = &current
		created = acc.Clone()
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}

	s.logger.Info().Str("account_id", created.ID).Str("name", created.Name).Msg("account signed up")
	if err := s.eventBus.PublishJSON(events.EventAccountSignedUp, events.AccountEventPayload{
		AccountID: created.ID,
		Name:      created.Name,
		At:        s.store.Now(),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("publish signup event")
	}
	return created, nil
}

// Login matches name or email plus password exactly and starts a session.
func (s *AccountService) Login(ctx context.Context, nameOrEmail, password string) (models.Account, error) {
	nameOrEmail = strings.TrimSpace(nameOrEmail)
	if nameOrEmail == "" {
		return models.Account{}, domain.ErrInvalidInput
	}

	var account models.Account
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		for i := range snap.Accounts {
			a := &snap.Accounts[i]
			if (a.Name == nameOrEmail || a.Email == nameOrEmail) && a.Password == password {
				a.Touch(s.store.Now())
				current := a.Clone()
				snap.CurrentAccount = &current
				account = a.Clone()
				return nil
			}
		}
		return domain.ErrInvalidCredentials
	})
	if err != nil {
		return models.Account{}, err
	}

	s.logger.Info().Str("account_id", account.ID).Msg("login")
	return account, nil
}

func (s *AccountService) Logout(ctx context.Context) error {
	return s.store.Update(ctx, func(snap *models.Snapshot) error {
		snap.CurrentAccount = nil
		return nil
	})
}

// CurrentAccount returns the logged in account while its session is valid.
func (s *AccountService) CurrentAccount() (models.Account, bool) {
	var (
		account models.Account
		ok      bool
	)
	s.store.View(func(snap *models.Snapshot) {
		if snap.CurrentAccount == nil {
			return
		}
		if !s.IsSessionValid(*snap.CurrentAccount) {
			return
		}
		account = snap.CurrentAccount.Clone()
		ok = true
	})
	return account, ok
}

func (s *AccountService) IsSessionValid(account models.Account) bool {
	return account.SessionValid(s.store.Now(), s.store.SessionTTL())
}

func (s *AccountService) Accounts() []models.Account {
	return s.store.Snapshot().Accounts
}

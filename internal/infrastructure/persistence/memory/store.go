package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

// Store is an in-memory ports.PersonStore suitable for tests and
// single-instance development. All operations, including the closure-based
// updates, run under one mutex, which gives the same serialization the
// Postgres store gets from row locks.
type Store struct {
	mu        sync.Mutex
	people    map[domain.PersonID]*domain.Person
	byAddress map[string]domain.PersonID
}

func NewStore() *Store {
	return &Store{
		people:    make(map[domain.PersonID]*domain.Person),
		byAddress: make(map[string]domain.PersonID),
	}
}

func (s *Store) Create(ctx context.Context, person *domain.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range person.Channels {
		if _, taken := s.byAddress[ch.Address]; taken {
			return domerrors.ErrAddressTaken
		}
	}
	cp := clonePerson(person)
	s.people[cp.ID] = cp
	for _, ch := range cp.Channels {
		s.byAddress[ch.Address] = cp.ID
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id domain.PersonID) (*domain.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[id]
	if !ok {
		return nil, nil
	}
	return clonePerson(p), nil
}

func (s *Store) GetByAddress(ctx context.Context, address string) (*domain.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byAddress[address]
	if !ok {
		return nil, nil
	}
	return clonePerson(s.people[id]), nil
}

func (s *Store) GetByVerificationCode(ctx context.Context, code string) (*domain.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.people {
		for i := range p.Channels {
			if p.Channels[i].Code != nil && *p.Channels[i].Code == code {
				return clonePerson(p), nil
			}
		}
	}
	return nil, nil
}

func (s *Store) UpdateCredentials(ctx context.Context, id domain.PersonID, mutate ports.CredentialsMutation) (domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[id]
	if !ok {
		return domain.Credentials{}, domerrors.ErrNotFound
	}
	next, err := mutate(p.Login)
	if err != nil {
		return domain.Credentials{}, err
	}
	p.Login = next
	p.UpdatedAt = time.Now()
	return next, nil
}

func (s *Store) UpdateChannel(ctx context.Context, address string, mutate ports.ChannelMutation) (domain.ContactChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byAddress[address]
	if !ok {
		return domain.ContactChannel{}, domerrors.ErrNotFound
	}
	p := s.people[id]
	ch, ok := p.Channel(address)
	if !ok {
		return domain.ContactChannel{}, domerrors.ErrNotFound
	}
	next, err := mutate(*ch)
	if err != nil {
		return domain.ContactChannel{}, err
	}
	*ch = next
	p.UpdatedAt = time.Now()
	return next, nil
}

func (s *Store) ExpireCodesIssuedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := 0
	for _, p := range s.people {
		for i := range p.Channels {
			ch := &p.Channels[i]
			if ch.Code != nil && ch.CodeIssuedAt != nil && ch.CodeIssuedAt.Before(cutoff) {
				ch.Code = nil
				ch.CodeIssuedAt = nil
				expired++
			}
		}
	}
	return expired, nil
}

// clonePerson deep-copies so callers never alias store-owned state.
func clonePerson(p *domain.Person) *domain.Person {
	cp := *p
	cp.Channels = make([]domain.ContactChannel, len(p.Channels))
	copy(cp.Channels, p.Channels)
	for i := range cp.Channels {
		if c := p.Channels[i].Code; c != nil {
			v := *c
			cp.Channels[i].Code = &v
		}
		if t := p.Channels[i].CodeIssuedAt; t != nil {
			v := *t
			cp.Channels[i].CodeIssuedAt = &v
		}
	}
	if t := p.Login.LockUntil; t != nil {
		v := *t
		cp.Login.LockUntil = &v
	}
	if t := p.Login.SecondFactorConfirmedAt; t != nil {
		v := *t
		cp.Login.SecondFactorConfirmedAt = &v
	}
	cp.Identifications = append([]domain.Identification(nil), p.Identifications...)
	cp.Addresses = append([]domain.PostalAddress(nil), p.Addresses...)
	return &cp
}

var _ ports.PersonStore = (*Store)(nil)

// Package store holds the in-memory contact collection.
//
// ContactStore is not safe for concurrent use; hosts that share one store
// across goroutines must serialize every call (see internal/directory).
package store

import (
	"strings"

	"address-book/internal/matcher"
	"address-book/internal/models"
)

// ContactStore owns an ordered collection of contacts. Insertion order is
// the order of every listing and search result.
type ContactStore struct {
	contacts []*models.Contact
	nextID   int64
}

// New creates an empty store whose first contact gets id 1.
func New() *ContactStore {
	return &ContactStore{nextID: 1}
}

// Add stores phone under name.
//
// It returns false when phone already belongs to a different contact. When a
// contact with a case-insensitively equal name exists and allowMerge is set,
// phone is appended to the first such contact (a no-op if it already holds
// it); otherwise a new contact is created.
// Inputs are expected to be validated by the caller.
func (s *ContactStore) Add(name string, category models.Category, phone string, allowMerge bool) bool {
	holder := s.holder(phone)
	if allowMerge {
		if existing := s.findByName(name); existing != nil {
			if holder == existing {
				return true
			}
			if holder != nil {
				return false
			}
			existing.PhoneNumbers = append(existing.PhoneNumbers, phone)
			return true
		}
	}
	if holder != nil {
		return false
	}
	s.contacts = append(s.contacts, &models.Contact{
		ID:           s.allocateID(),
		Name:         name,
		Category:     category,
		PhoneNumbers: []string{phone},
	})
	return true
}

// SearchByName returns contacts whose name contains query (case-insensitive),
// or, when fuzzy is set, whose name is similar to query.
func (s *ContactStore) SearchByName(query string, fuzzy bool) []models.Contact {
	if fuzzy {
		return s.filter(func(c *models.Contact) bool { return matcher.IsSimilar(c.Name, query) })
	}
	q := matcher.Fold(query)
	return s.filter(func(c *models.Contact) bool { return strings.Contains(matcher.Fold(c.Name), q) })
}

// SearchByNumber returns the contact holding number verbatim, if any.
func (s *ContactStore) SearchByNumber(number string) []models.Contact {
	return s.filter(func(c *models.Contact) bool { return c.HasPhoneNumber(number) })
}

// SearchByCategory returns contacts labelled category, compared case-insensitively.
func (s *ContactStore) SearchByCategory(category models.Category) []models.Contact {
	return s.filter(func(c *models.Contact) bool {
		return strings.EqualFold(string(c.Category), string(category))
	})
}

// DeleteByName removes every contact whose full name equals name
// case-insensitively and returns how many were removed.
func (s *ContactStore) DeleteByName(name string) int {
	kept := s.contacts[:0]
	removed := 0
	for _, c := range s.contacts {
		if sameName(c.Name, name) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(s.contacts); i++ {
		s.contacts[i] = nil
	}
	s.contacts = kept
	return removed
}

// DeleteByNumber removes number from the contact holding it, and the contact
// itself when that was its last number. Reports whether anything changed.
func (s *ContactStore) DeleteByNumber(number string) bool {
	// Add keeps numbers unique, so at most one contact can match.
	for i := len(s.contacts) - 1; i >= 0; i-- {
		c := s.contacts[i]
		if !c.HasPhoneNumber(number) {
			continue
		}
		if len(c.PhoneNumbers) > 1 {
			c.PhoneNumbers = removeString(c.PhoneNumbers, number)
		} else {
			last := len(s.contacts) - 1
			copy(s.contacts[i:], s.contacts[i+1:])
			s.contacts[last] = nil
			s.contacts = s.contacts[:last]
		}
		return true
	}
	return false
}

// All returns a deep snapshot of every contact.
func (s *ContactStore) All() []models.Contact {
	return s.filter(func(*models.Contact) bool { return true })
}

// Count returns the number of contacts.
func (s *ContactStore) Count() int { return len(s.contacts) }

// Clear removes every contact. Ids are not reused afterwards.
func (s *ContactStore) Clear() { s.contacts = nil }

func (s *ContactStore) allocateID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *ContactStore) filter(keep func(*models.Contact) bool) []models.Contact {
	out := make([]models.Contact, 0)
	for _, c := range s.contacts {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func (s *ContactStore) holder(number string) *models.Contact {
	for _, c := range s.contacts {
		if c.HasPhoneNumber(number) {
			return c
		}
	}
	return nil
}

func (s *ContactStore) findByName(name string) *models.Contact {
	for _, c := range s.contacts {
		if sameName(c.Name, name) {
			return c
		}
	}
	return nil
}

func sameName(a, b string) bool {
	return matcher.Fold(a) == matcher.Fold(b)
}

func removeString(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

// Package directory is the thread-safe facade over the contact store.
//
// Service validates and normalizes input before it reaches the store, holds
// the one mutex that serializes every store call, and turns the store's
// bool/int outcomes into typed errors for the presentation layers.
package directory

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"address-book/internal/matcher"
	"address-book/internal/models"
	"address-book/internal/store"
	"address-book/internal/validation"
	errs "address-book/pkg/errors"
	"address-book/pkg/logging"
	"address-book/pkg/metrics"
	"address-book/pkg/utils"
)

var (
	// ErrDuplicateNumber is wrapped when a number already belongs to another contact.
	ErrDuplicateNumber = stderrors.New("phone number already belongs to another contact")
	// ErrNotFound is wrapped when a delete matched nothing.
	ErrNotFound = stderrors.New("no matching contact")
)

// Options tune input normalization.
type Options struct {
	// CountryCode enables rewriting 0XXXXXXXXX numbers to CountryCode+XXXXXXXXX.
	CountryCode string
}

// AddRequest is the raw input of an add operation.
type AddRequest struct {
	Name       string `json:"name" yaml:"name"`
	Category   string `json:"category" yaml:"category"`
	Phone      string `json:"phone" yaml:"phone"`
	AllowMerge bool   `json:"allow_merge" yaml:"allow_merge"`
}

// AddResult describes a successful add.
type AddResult struct {
	Name     string          `json:"name"`
	Category models.Category `json:"category"`
	Phone    string          `json:"phone"`
	// Merged is true when the number joined an existing contact.
	Merged bool `json:"merged"`
	// Unchanged is true when the contact already held the number.
	Unchanged bool `json:"unchanged"`
}

// Service is safe for concurrent use.
type Service struct {
	mu    sync.Mutex
	store *store.ContactStore
	opts  Options
	log   *logging.ComponentLogger

	mAdded    *metrics.Counter
	mRejected *metrics.Counter
	mSearches *metrics.Counter
	mDeleted  *metrics.Counter
	mStored   *metrics.Gauge
	mLatency  *metrics.Histogram
}

// NewService wraps st. A nil logger discards logs; a nil registry uses metrics.Default.
func NewService(st *store.ContactStore, logger *logging.Logger, reg *metrics.Registry, opts Options) *Service {
	if st == nil {
		st = store.New()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if reg == nil {
		reg = metrics.Default
	}
	return &Service{
		store:     st,
		opts:      opts,
		log:       logger.WithComponent("directory"),
		mAdded:    reg.Counter("directory_numbers_added_total", "Phone numbers accepted by add"),
		mRejected: reg.Counter("directory_add_rejected_total", "Add requests rejected by validation or uniqueness"),
		mSearches: reg.Counter("directory_searches_total", "Name, number and category searches"),
		mDeleted:  reg.Counter("directory_deletions_total", "Contacts or numbers removed"),
		mStored:   reg.Gauge("directory_contacts", "Contacts currently stored"),
		mLatency:  reg.Histogram("directory_operation_seconds", "Store operation latency", nil),
	}
}

// NormalizePhone cleans a raw number the way Add stores it.
func (s *Service) NormalizePhone(raw string) string {
	return utils.NormalizeLocalPhone(raw, s.opts.CountryCode)
}

// Add validates req and stores its number.
func (s *Service) Add(ctx context.Context, req AddRequest) (AddResult, error) {
	const op = "directory.Add"
	log := s.log.Ctx(ctx)

	if err := validation.ValidateName(req.Name); err != nil {
		return s.reject(log, err)
	}
	category, err := validation.NormalizeCategory(req.Category)
	if err != nil {
		return s.reject(log, err)
	}
	if err := validation.ValidatePhone(req.Phone); err != nil {
		return s.reject(log, err)
	}
	phone := s.NormalizePhone(req.Phone)
	name := trimName(req.Name)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.mLatency.Since(time.Now())

	before := s.store.Count()
	held := len(s.store.SearchByNumber(phone)) > 0
	if !s.store.Add(name, category, phone, req.AllowMerge) {
		return s.reject(log, errs.NewBiz(op, "this phone number already exists in another contact", ErrDuplicateNumber))
	}
	// Add only succeeds on a held number when the same contact holds it.
	if held {
		log.Debug("contact already holds number",
			logging.String("name", name),
			logging.String("phone", utils.MaskPhone(phone)))
		return AddResult{Name: name, Category: category, Phone: phone, Unchanged: true}, nil
	}
	merged := s.store.Count() == before

	s.mAdded.Inc()
	s.mStored.Set(float64(s.store.Count()))
	log.Info("contact number stored",
		logging.String("name", name),
		logging.String("category", string(category)),
		logging.String("phone", utils.MaskPhone(phone)),
		logging.Bool("merged", merged))

	return AddResult{Name: name, Category: category, Phone: phone, Merged: merged}, nil
}

func (s *Service) reject(log *logging.ContextLogger, err error) (AddResult, error) {
	s.mRejected.Inc()
	log.Warn("add rejected", logging.String("reason", errs.MessageOf(err)))
	return AddResult{}, err
}

// SearchByName runs a contains or fuzzy name search.
func (s *Service) SearchByName(ctx context.Context, query string, fuzzy bool) []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.mLatency.Since(time.Now())

	res := s.store.SearchByName(query, fuzzy)
	s.mSearches.Inc()
	s.log.Ctx(ctx).Debug("search by name",
		logging.String("query", query),
		logging.Bool("fuzzy", fuzzy),
		logging.Int("results", len(res)))
	return res
}

// SearchSimilar runs the stricter library profile: no length gate, but each
// rune of length difference costs 0.1 and the floor is 0.75.
func (s *Service) SearchSimilar(ctx context.Context, query string) []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.mLatency.Since(time.Now())

	res := matcher.Filter(s.store.All(), func(c models.Contact) string { return c.Name }, query)
	if res == nil {
		res = []models.Contact{}
	}
	s.mSearches.Inc()
	s.log.Ctx(ctx).Debug("similar search",
		logging.String("query", query),
		logging.Int("results", len(res)))
	return res
}

// SearchByNumber cleans number and looks it up exactly.
func (s *Service) SearchByNumber(ctx context.Context, number string) []models.Contact {
	phone := s.NormalizePhone(number)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.mLatency.Since(time.Now())

	res := s.store.SearchByNumber(phone)
	s.mSearches.Inc()
	s.log.Ctx(ctx).Debug("search by number",
		logging.String("phone", utils.MaskPhone(phone)),
		logging.Int("results", len(res)))
	return res
}

// SearchByCategory lists contacts under one of the four labels.
func (s *Service) SearchByCategory(ctx context.Context, category string) ([]models.Contact, error) {
	c, err := validation.NormalizeCategory(category)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.mLatency.Since(time.Now())

	res := s.store.SearchByCategory(c)
	s.mSearches.Inc()
	s.log.Ctx(ctx).Debug("search by category",
		logging.String("category", string(c)),
		logging.Int("results", len(res)))
	return res, nil
}

// DeleteByName removes every contact named name (case-insensitive, exact)
// and returns the count. A zero count wraps ErrNotFound.
func (s *Service) DeleteByName(ctx context.Context, name string) (int, error) {
	name = trimName(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.store.DeleteByName(name)
	if n == 0 {
		return 0, errs.NewBiz("directory.DeleteByName", "no contacts found with name: "+name, ErrNotFound)
	}
	s.mDeleted.Add(int64(n))
	s.mStored.Set(float64(s.store.Count()))
	s.log.Ctx(ctx).Info("contacts deleted by name", logging.String("name", name), logging.Int("count", n))
	return n, nil
}

// DeleteByNumber removes a number, and its contact when it was the last one.
func (s *Service) DeleteByNumber(ctx context.Context, number string) error {
	phone := s.NormalizePhone(number)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.DeleteByNumber(phone) {
		return errs.NewBiz("directory.DeleteByNumber", "no contact found with number: "+phone, ErrNotFound)
	}
	s.mDeleted.Inc()
	s.mStored.Set(float64(s.store.Count()))
	s.log.Ctx(ctx).Info("number deleted", logging.String("phone", utils.MaskPhone(phone)))
	return nil
}

// All returns a snapshot of every contact.
func (s *Service) All() []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.All()
}

// Count returns the number of stored contacts.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Count()
}

// Clear empties the directory.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.store.Count()
	s.store.Clear()
	s.mStored.Set(0)
	s.log.Ctx(ctx).Info("directory cleared", logging.Int("removed", n))
}

func trimName(name string) string { return strings.TrimSpace(name) }

package directory

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	errs "address-book/pkg/errors"
	"address-book/pkg/logging"
	"address-book/pkg/metrics"
)

func newTestService(t *testing.T, opts Options) (*Service, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	return NewService(nil, logging.Nop(), reg, opts), reg
}

func TestService_Add_ValidationErrors(t *testing.T) {
	s, reg := newTestService(t, Options{})
	ctx := context.Background()

	cases := []struct {
		name string
		req  AddRequest
	}{
		{"empty name", AddRequest{Name: "  ", Category: "Work", Phone: "0591234567"}},
		{"bad name chars", AddRequest{Name: "R2D2", Category: "Work", Phone: "0591234567"}},
		{"bad category", AddRequest{Name: "Alice", Category: "Friends", Phone: "0591234567"}},
		{"reserved", AddRequest{Name: "Alice", Category: "Work", Phone: "911"}},
		{"too short", AddRequest{Name: "Alice", Category: "Work", Phone: "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Add(ctx, tc.req)
			if !errs.Is(err, errs.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if s.Count() != 0 {
		t.Fatalf("invalid input must never reach the store")
	}
	if got := reg.Counter("directory_add_rejected_total", "").Get(); got != int64(len(cases)) {
		t.Fatalf("rejected counter = %d, want %d", got, len(cases))
	}
}

func TestService_Add_DuplicateIsBizError(t *testing.T) {
	s, _ := newTestService(t, Options{})
	ctx := context.Background()

	if _, err := s.Add(ctx, AddRequest{Name: "Alice", Category: "personal", Phone: "059-123-4567"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := s.Add(ctx, AddRequest{Name: "Bob", Category: "Work", Phone: "(059) 1234567"})
	if !errors.Is(err, ErrDuplicateNumber) {
		t.Fatalf("expected ErrDuplicateNumber, got %v", err)
	}
	if !errs.Is(err, errs.ErrBiz) {
		t.Fatalf("duplicate should be a business error, got %T", err)
	}
	if errs.MessageOf(err) == "" {
		t.Fatalf("business error should carry a message")
	}
}

func TestService_Add_MergeAndNormalize(t *testing.T) {
	s, _ := newTestService(t, Options{})
	ctx := context.Background()

	first, err := s.Add(ctx, AddRequest{Name: " Multi ", Category: "FAMILY", Phone: "111-1111"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.Merged || first.Name != "Multi" || first.Category != "Family" || first.Phone != "1111111" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	second, err := s.Add(ctx, AddRequest{Name: "multi", Category: "Family", Phone: "2222222", AllowMerge: true})
	if err != nil {
		t.Fatalf("merge add: %v", err)
	}
	if !second.Merged {
		t.Fatalf("second add should merge: %+v", second)
	}
	all := s.All()
	if len(all) != 1 || len(all[0].PhoneNumbers) != 2 {
		t.Fatalf("unexpected contacts: %+v", all)
	}
}

func TestService_Add_RepeatNumberIsUnchanged(t *testing.T) {
	s, reg := newTestService(t, Options{})
	ctx := context.Background()
	req := AddRequest{Name: "Multi", Category: "Family", Phone: "0591000001", AllowMerge: true}

	if _, err := s.Add(ctx, req); err != nil {
		t.Fatalf("add: %v", err)
	}
	again, err := s.Add(ctx, req)
	if err != nil {
		t.Fatalf("repeat add: %v", err)
	}
	if !again.Unchanged || again.Merged {
		t.Fatalf("repeat add should report unchanged, got %+v", again)
	}
	if got := reg.Counter("directory_numbers_added_total", "").Get(); got != 1 {
		t.Fatalf("added counter = %d, want 1", got)
	}
	all := s.All()
	if len(all) != 1 || len(all[0].PhoneNumbers) != 1 {
		t.Fatalf("unexpected contacts: %+v", all)
	}
}

func TestService_CountryCode(t *testing.T) {
	s, _ := newTestService(t, Options{CountryCode: "+970"})
	ctx := context.Background()

	res, err := s.Add(ctx, AddRequest{Name: "Local", Category: "Other", Phone: "0591234567"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if res.Phone != "970591234567" {
		t.Fatalf("phone = %q, want international form", res.Phone)
	}
	if got := s.SearchByNumber(ctx, "059 123 4567"); len(got) != 1 {
		t.Fatalf("local spelling should find the contact, got %d", len(got))
	}
}

func TestService_Deletes(t *testing.T) {
	s, _ := newTestService(t, Options{})
	ctx := context.Background()
	s.Add(ctx, AddRequest{Name: "Same Name", Category: "Work", Phone: "1111111"})
	s.Add(ctx, AddRequest{Name: "Same Name", Category: "Work", Phone: "2222222"})
	s.Add(ctx, AddRequest{Name: "Keep", Category: "Work", Phone: "3333333"})

	n, err := s.DeleteByName(ctx, "same name")
	if err != nil || n != 2 {
		t.Fatalf("DeleteByName = %d, %v; want 2, nil", n, err)
	}
	if _, err := s.DeleteByName(ctx, "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteByNumber(ctx, "333-3333"); err != nil {
		t.Fatalf("DeleteByNumber: %v", err)
	}
	if err := s.DeleteByNumber(ctx, "3333333"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if s.Count() != 0 {
		t.Fatalf("count = %d, want 0", s.Count())
	}
}

func TestService_SearchByCategory(t *testing.T) {
	s, reg := newTestService(t, Options{})
	ctx := context.Background()
	s.Add(ctx, AddRequest{Name: "Ann", Category: "Work", Phone: "1111111"})
	s.Add(ctx, AddRequest{Name: "Ben", Category: "Family", Phone: "2222222"})
	latency := reg.Histogram("directory_operation_seconds", "", nil)
	before := latency.Count()

	res, err := s.SearchByCategory(ctx, "work")
	if err != nil || len(res) != 1 || res[0].Name != "Ann" {
		t.Fatalf("unexpected category search: %+v, %v", res, err)
	}
	if latency.Count() != before+1 {
		t.Fatalf("category search should record latency")
	}
	if got := reg.Counter("directory_searches_total", "").Get(); got != 1 {
		t.Fatalf("searches counter = %d, want 1", got)
	}
	if _, err := s.SearchByCategory(ctx, "friends"); !errs.Is(err, errs.ErrValidation) {
		t.Fatalf("unknown category should be a validation error, got %v", err)
	}
}

func TestService_LogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewLogger(logging.LogConfig{Level: logging.LevelInfo, Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	s := NewService(nil, logger, metrics.NewRegistry(), Options{})
	ctx := logging.WithRequestID(context.Background(), "req-42")
	if _, err := s.Add(ctx, AddRequest{Name: "Alice", Category: "Work", Phone: "5551234567"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) || !strings.Contains(out, `"component":"directory"`) {
		t.Fatalf("log line missing correlation fields: %s", out)
	}
	if strings.Contains(out, "5551234567") {
		t.Fatalf("phone number should be masked in logs: %s", out)
	}
}

func TestService_ConcurrentAddsKeepUniqueness(t *testing.T) {
	s, _ := newTestService(t, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := []string{"Ann", "Ben"}[i%2]
			if _, err := s.Add(ctx, AddRequest{Name: name, Category: "Other", Phone: "7777777", AllowMerge: true}); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if s.Count() != 1 {
		t.Fatalf("exactly one contact should hold the number, got %d", s.Count())
	}
	if accepted < 1 {
		t.Fatalf("at least one add should succeed")
	}
}

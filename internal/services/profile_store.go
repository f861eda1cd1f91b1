package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/persistence"
)

var (
	ErrBlankProfileName = errors.New("profile name is blank")
	ErrDuplicateProfile = errors.New("profile already exists")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrNoActiveProfile  = errors.New("no active profile")
)

// ProfileStore owns every profile, the active selection and the selected
// period. It is the only writer to persistent storage: each successful
// mutation saves the whole profile set in a single write.
//
// Operations are serialized by one mutex, which also orders the writes.
type ProfileStore struct {
	mu       sync.Mutex
	profiles []core.Profile
	active   string
	period   core.Period

	saver    persistence.Saver
	now      func() time.Time
	logger   *applog.Logger
	observer Observer

	lastPersistErr error
	// bumped by every change to profiles, selection or period
	version uint64
}

// persistTimeout bounds a single save of the whole profile set.
const persistTimeout = 30 * time.Second

type persistOutcomeKey struct{}

// PersistOutcome receives the result of the save made by one mutation.
type PersistOutcome struct {
	err error
}

// Err returns the save error, or nil when the save succeeded or no save
// was made.
func (o *PersistOutcome) Err() error {
	return o.err
}

// TrackPersist returns a context that records the outcome of the save
// made by a mutation called with it. Unlike LastPersistError, the outcome
// is never overwritten by a concurrent caller.
func TrackPersist(ctx context.Context) (context.Context, *PersistOutcome) {
	outcome := &PersistOutcome{}
	return context.WithValue(ctx, persistOutcomeKey{}, outcome), outcome
}

// Observer is told about persist outcomes, typically a metrics sink.
type Observer interface {
	IncPersistFailure()
	SetProfiles(n int)
}

type noopObserver struct{}

func (noopObserver) IncPersistFailure() {}
func (noopObserver) SetProfiles(int)    {}

// Option configures a ProfileStore.
type Option func(*ProfileStore)

// WithClock replaces time.Now, used to date new entries.
func WithClock(now func() time.Time) Option {
	return func(s *ProfileStore) { s.now = now }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *ProfileStore) { s.logger = l.WithComponent(applog.ComponentProfiles) }
}

func WithObserver(o Observer) Option {
	return func(s *ProfileStore) { s.observer = o }
}

// NewProfileStore returns an empty store writing to saver. The selected
// period starts at the current month.
func NewProfileStore(saver persistence.Saver, opts ...Option) *ProfileStore {
	s := &ProfileStore{
		saver:    saver,
		now:      time.Now,
		logger:   applog.Discard(),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.period = core.PeriodOf(s.now().UTC())
	return s
}

// Load replaces the in-memory profiles with what loader returns. Blank and
// repeated names are skipped. On error the store is left untouched.
func (s *ProfileStore) Load(ctx context.Context, loader persistence.Loader) error {
	profiles, err := loader.LoadProfiles(ctx)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	seen := make(map[string]struct{}, len(profiles))
	kept := make([]core.Profile, 0, len(profiles))
	for _, p := range profiles {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			s.logger.WarnContext(ctx, "Skipping duplicate stored profile", applog.FieldProfile, name)
			continue
		}
		seen[name] = struct{}{}
		if p.Ledger == nil {
			p.Ledger = core.NewLedger()
		}
		p.Name = name
		kept = append(kept, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = kept
	s.active = ""
	s.observer.SetProfiles(len(kept))
	s.version++
	s.logger.InfoContext(ctx, "Profiles loaded", applog.FieldProfiles, len(kept))
	return nil
}

// CreateProfile adds an empty profile and makes it active.
func (s *ProfileStore) CreateProfile(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankProfileName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(name) >= 0 {
		return fmt.Errorf("%q: %w", name, ErrDuplicateProfile)
	}
	s.profiles = append(s.profiles, core.NewProfile(name))
	s.active = name

	s.logger.InfoContext(ctx, "Profile created",
		applog.FieldProfile, name,
		applog.FieldOperation, applog.OpCreate)
	s.persist(ctx)
	return nil
}

// SwitchProfile makes name the active profile.
func (s *ProfileStore) SwitchProfile(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(name) < 0 {
		return fmt.Errorf("%q: %w", name, ErrProfileNotFound)
	}
	s.active = name
	s.version++
	s.logger.InfoContext(ctx, "Profile switched",
		applog.FieldProfile, name,
		applog.FieldOperation, applog.OpSwitch)
	return nil
}

// DeleteProfile removes a profile and its ledger. Deleting the active profile
// clears the active selection.
func (s *ProfileStore) DeleteProfile(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%q: %w", name, ErrProfileNotFound)
	}
	s.profiles = append(s.profiles[:i:i], s.profiles[i+1:]...)
	if s.active == name {
		s.active = ""
	}

	s.logger.InfoContext(ctx, "Profile deleted",
		applog.FieldProfile, name,
		applog.FieldOperation, applog.OpDelete)
	s.persist(ctx)
	return nil
}

// SelectPeriod changes the month and year the queries look at.
func (s *ProfileStore) SelectPeriod(p core.Period) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = p
	s.version++
	return nil
}

// View identifies what the derived views currently reflect. Two equal
// views always produce the same summary.
type View struct {
	Active  string
	Period  core.Period
	Version uint64
}

func (s *ProfileStore) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{Active: s.active, Period: s.period, Version: s.version}
}

func (s *ProfileStore) Period() core.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Active returns the active profile name, empty when none is selected.
func (s *ProfileStore) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Profiles returns the profile names in creation order.
func (s *ProfileStore) Profiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.profiles))
	for i, p := range s.profiles {
		names[i] = p.Name
	}
	return names
}

// LastPersistError reports the outcome of the most recent write.
func (s *ProfileStore) LastPersistError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPersistErr
}

// Add stores an income, expense or recurring entry on the active profile.
// Income and expense entries are dated inside the selected period: now when
// it is the current month, otherwise the 15th of that month.
func (s *ProfileStore) Add(ctx context.Context, kind core.Kind, amount float64, description string) (core.Entry, error) {
	if kind == core.Installment {
		return core.Entry{}, fmt.Errorf("use AddInstallment for %s: %w", kind, core.ErrInvalidKind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.activeLedger()
	if err != nil {
		return core.Entry{}, err
	}
	e, err := l.Add(kind, amount, description, s.entryDate())
	if err != nil {
		return core.Entry{}, err
	}

	s.logger.InfoContext(ctx, "Entry added", applog.NewFields().
		WithProfile(s.active).
		WithEntry(string(kind), e.ID, e.Amount).
		WithOperation(applog.OpCreate).ToSlice()...)
	s.persist(ctx)
	return e, nil
}

func (s *ProfileStore) AddIncome(ctx context.Context, amount float64, description string) (core.Entry, error) {
	return s.Add(ctx, core.Income, amount, description)
}

func (s *ProfileStore) AddExpense(ctx context.Context, amount float64, description string) (core.Entry, error) {
	return s.Add(ctx, core.Expense, amount, description)
}

func (s *ProfileStore) AddRecurring(ctx context.Context, amount float64, description string) (core.Entry, error) {
	return s.Add(ctx, core.Recurring, amount, description)
}

// AddInstallment expands a purchase over months starting at the selected
// period and stores the whole series.
func (s *ProfileStore) AddInstallment(ctx context.Context, total float64, description string, months int) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.activeLedger()
	if err != nil {
		return nil, err
	}
	series, err := core.ExpandInstallment(total, description, months, s.period)
	if err != nil {
		return nil, err
	}
	stored, err := l.AddInstallments(series)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Installment purchase added",
		applog.FieldProfile, s.active,
		applog.FieldAmount, total,
		applog.FieldMonths, months,
		applog.FieldYear, s.period.Year,
		applog.FieldMonth, int(s.period.Month))
	s.persist(ctx)
	return stored, nil
}

// Edit replaces amount and description of an entry on the active profile.
func (s *ProfileStore) Edit(ctx context.Context, kind core.Kind, id int64, amount float64, description string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.activeLedger()
	if err != nil {
		return core.Entry{}, err
	}
	e, err := l.Edit(kind, id, amount, description)
	if err != nil {
		return core.Entry{}, err
	}

	s.logger.InfoContext(ctx, "Entry updated", applog.NewFields().
		WithProfile(s.active).
		WithEntry(string(kind), e.ID, e.Amount).
		WithOperation(applog.OpUpdate).ToSlice()...)
	s.persist(ctx)
	return e, nil
}

// Remove deletes an entry from the active profile.
func (s *ProfileStore) Remove(ctx context.Context, kind core.Kind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.activeLedger()
	if err != nil {
		return err
	}
	if err := l.Remove(kind, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Entry removed",
		applog.FieldProfile, s.active,
		applog.FieldKind, string(kind),
		applog.FieldEntryID, id,
		applog.FieldOperation, applog.OpDelete)
	s.persist(ctx)
	return nil
}

// Entries returns the view of kind for the selected period. Without an
// active profile it is empty.
func (s *ProfileStore) Entries(kind core.Kind) []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.activeLedger()
	if err != nil {
		return []core.Entry{}
	}
	return l.ForPeriod(kind, s.period)
}

func (s *ProfileStore) FilteredIncome() []core.Entry {
	return s.Entries(core.Income)
}

func (s *ProfileStore) FilteredExpenses() []core.Entry {
	return s.Entries(core.Expense)
}

func (s *ProfileStore) FilteredInstallments() []core.Entry {
	return s.Entries(core.Installment)
}

func (s *ProfileStore) AllRecurring() []core.Entry {
	return s.Entries(core.Recurring)
}

// Summary aggregates the active profile for the selected period.
func (s *ProfileStore) Summary() core.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, _ := s.activeLedger()
	return core.Summarize(l, s.period)
}

func (s *ProfileStore) indexOf(name string) int {
	for i, p := range s.profiles {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (s *ProfileStore) activeLedger() (*core.Ledger, error) {
	if s.active == "" {
		return nil, ErrNoActiveProfile
	}
	i := s.indexOf(s.active)
	if i < 0 {
		return nil, ErrNoActiveProfile
	}
	return s.profiles[i].Ledger, nil
}

func (s *ProfileStore) entryDate() time.Time {
	now := s.now().UTC()
	if core.PeriodOf(now) == s.period {
		return now
	}
	return time.Date(s.period.Year, s.period.Month, 15, 12, 0, 0, 0, time.UTC)
}

func (s *ProfileStore) snapshot() []core.Profile {
	out := make([]core.Profile, len(s.profiles))
	for i, p := range s.profiles {
		out[i] = p.Clone()
	}
	return out
}

// persist writes the full profile set. A failed write is logged and kept
// for LastPersistError; the in-memory state stays authoritative.
//
// The write outlives the caller's context: a dropped request must not
// leave an applied change unsaved.
func (s *ProfileStore) persist(ctx context.Context) {
	s.version++
	s.observer.SetProfiles(len(s.profiles))
	if s.saver == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	err := s.saver.SaveProfiles(saveCtx, s.snapshot())
	s.lastPersistErr = err
	if outcome, ok := ctx.Value(persistOutcomeKey{}).(*PersistOutcome); ok {
		outcome.err = err
	}
	if err != nil {
		s.observer.IncPersistFailure()
		s.logger.ErrorContext(ctx, "Failed to persist profiles",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeDatabase,
			applog.FieldOperation, applog.OpPersist)
	}
}

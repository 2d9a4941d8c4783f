package sponsorship

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"parishcore/pkg/types"
)

// In-memory stand-ins for the pgx repositories. They mirror the store
// semantics the engine depends on: optimistic versioning on status writes
// and the atomic due-check on reminder updates.

type fakeCaseStore struct {
	mu     sync.Mutex
	nextID int64
	cases  map[int64]*types.SponsorshipCase

	// timeline receives the audit event committed with each transition, the
	// same all-or-nothing pairing the transactional repository gives.
	timeline *fakeTimelineStore

	// beforeUpdate, when set, runs between the version check setup and the
	// actual write. Tests use it to stage concurrent writers.
	beforeUpdate func()

	// eventErr, when set, fails the event half of ApplyTransition; the
	// status write must not land either.
	eventErr error
}

func newFakeCaseStore() *fakeCaseStore {
	return &fakeCaseStore{nextID: 1, cases: make(map[int64]*types.SponsorshipCase)}
}

func copyCase(c *types.SponsorshipCase) *types.SponsorshipCase {
	dup := *c
	return &dup
}

func (f *fakeCaseStore) Case(_ context.Context, caseID int64) (*types.SponsorshipCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.cases[caseID]
	if !ok {
		return nil, types.ErrCaseNotFound
	}
	return copyCase(c), nil
}

func (f *fakeCaseStore) filter(keep func(*types.SponsorshipCase) bool) []*types.SponsorshipCase {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*types.SponsorshipCase, 0)
	for _, c := range f.cases {
		if keep(c) {
			out = append(out, copyCase(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeCaseStore) CasesByStatus(_ context.Context, status types.CaseStatus) ([]*types.SponsorshipCase, error) {
	return f.filter(func(c *types.SponsorshipCase) bool { return c.Status == status }), nil
}

func (f *fakeCaseStore) CasesBySponsor(_ context.Context, sponsorID int64) ([]*types.SponsorshipCase, error) {
	return f.filter(func(c *types.SponsorshipCase) bool { return c.SponsorID == sponsorID }), nil
}

func (f *fakeCaseStore) CasesByRound(_ context.Context, roundID int64) ([]*types.SponsorshipCase, error) {
	return f.filter(func(c *types.SponsorshipCase) bool {
		return c.BudgetRoundID != nil && *c.BudgetRoundID == roundID
	}), nil
}

func (f *fakeCaseStore) CreateCase(_ context.Context, c *types.SponsorshipCase) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c.ID = f.nextID
	f.nextID++
	c.Status = types.CaseStatusDraft
	c.LastStatus = types.LastStatusPending
	c.Version = 1
	if c.BudgetSlots == 0 {
		c.BudgetSlots = 1
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	f.cases[c.ID] = copyCase(c)
	return nil
}

func (f *fakeCaseStore) ApplyTransition(ctx context.Context, c *types.SponsorshipCase, event *types.TimelineEvent) error {
	if f.beforeUpdate != nil {
		f.beforeUpdate()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.cases[c.ID]
	if !ok {
		return types.ErrCaseNotFound
	}

	if stored.Version != c.Version {
		return fmt.Errorf("case %d version %d: %w", c.ID, c.Version, types.ErrConcurrentModification)
	}

	if f.eventErr != nil {
		return f.eventErr
	}

	if f.timeline != nil {
		if err := f.timeline.Append(ctx, event); err != nil {
			return err
		}
	}

	c.Version++
	c.UpdatedAt = time.Now()
	f.cases[c.ID] = copyCase(c)
	return nil
}

func (f *fakeCaseStore) DueCases(_ context.Context, asOf time.Time, limit uint64) ([]*types.SponsorshipCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	due := make([]*types.SponsorshipCase, 0)
	for _, c := range f.cases {
		if c.Status != types.CaseStatusActive || c.ReminderNextDue == nil {
			continue
		}
		if c.ReminderNextDue.After(asOf) {
			continue
		}
		due = append(due, copyCase(c))
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].ReminderNextDue.Equal(*due[j].ReminderNextDue) {
			return due[i].ReminderNextDue.Before(*due[j].ReminderNextDue)
		}
		return due[i].ID < due[j].ID
	})

	if limit > 0 && uint64(len(due)) > limit {
		due = due[:limit]
	}

	return due, nil
}

func (f *fakeCaseStore) MarkReminderSent(_ context.Context, caseID int64, channel types.ReminderChannel, sentAt time.Time, nextDue *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.cases[caseID]
	if !ok {
		return types.ErrCaseNotFound
	}

	if c.Status != types.CaseStatusActive || c.ReminderNextDue == nil || c.ReminderNextDue.After(sentAt) {
		return fmt.Errorf("case %d: %w", caseID, types.ErrReminderNotDue)
	}

	c.ReminderChannel = channel
	sent := sentAt
	c.ReminderLastSent = &sent
	c.ReminderNextDue = nextDue
	c.UpdatedAt = time.Now()
	return nil
}

func (f *fakeCaseStore) UsedSlots(_ context.Context, roundID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	used := 0
	for _, c := range f.cases {
		if c.BudgetRoundID == nil || *c.BudgetRoundID != roundID {
			continue
		}
		if c.Status.CountsAgainstBudget() {
			used += c.BudgetSlots
		}
	}
	return used, nil
}

func (f *fakeCaseStore) CountByStatus(_ context.Context) (map[types.CaseStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[types.CaseStatus]int)
	for _, c := range f.cases {
		counts[c.Status]++
	}
	return counts, nil
}

func (f *fakeCaseStore) ActivatedInMonth(_ context.Context, asOf time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, c := range f.cases {
		if c.ActivatedAt == nil {
			continue
		}
		if c.ActivatedAt.Year() == asOf.Year() && c.ActivatedAt.Month() == asOf.Month() {
			count++
		}
	}
	return count, nil
}

func (f *fakeCaseStore) UnassignedActive(_ context.Context) ([]*types.SponsorshipCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*types.SponsorshipCase, 0)
	for _, c := range f.cases {
		if c.Status == types.CaseStatusActive && c.BudgetRoundID == nil {
			out = append(out, copyCase(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// put stores a case directly, bypassing the engine. Tests use it to stage
// preconditions.
func (f *fakeCaseStore) put(c *types.SponsorshipCase) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c.ID == 0 {
		c.ID = f.nextID
		f.nextID++
	} else if c.ID >= f.nextID {
		f.nextID = c.ID + 1
	}
	if c.Version == 0 {
		c.Version = 1
	}
	if c.BudgetSlots == 0 {
		c.BudgetSlots = 1
	}
	f.cases[c.ID] = copyCase(c)
}

func (f *fakeCaseStore) get(caseID int64) *types.SponsorshipCase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyCase(f.cases[caseID])
}

type fakeRoundStore struct {
	mu     sync.Mutex
	nextID int64
	rounds map[int64]*types.BudgetRound
}

func newFakeRoundStore() *fakeRoundStore {
	return &fakeRoundStore{nextID: 1, rounds: make(map[int64]*types.BudgetRound)}
}

func (f *fakeRoundStore) Round(_ context.Context, roundID int64) (*types.BudgetRound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	round, ok := f.rounds[roundID]
	if !ok {
		return nil, types.ErrRoundNotFound
	}
	dup := *round
	return &dup, nil
}

func (f *fakeRoundStore) sorted() []*types.BudgetRound {
	out := make([]*types.BudgetRound, 0, len(f.rounds))
	for _, round := range f.rounds {
		dup := *round
		out = append(out, &dup)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].RoundNumber < out[j].RoundNumber
	})
	return out
}

func (f *fakeRoundStore) RoundForPeriod(_ context.Context, month, year int) (*types.BudgetRound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	at := time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC)
	for _, round := range f.sorted() {
		if round.Year != year || round.StartDate == nil || round.EndDate == nil {
			continue
		}
		if !at.Before(*round.StartDate) && !at.After(*round.EndDate) {
			return round, nil
		}
	}
	return nil, types.ErrRoundNotFound
}

func (f *fakeRoundStore) CurrentRound(_ context.Context, asOf time.Time) (*types.BudgetRound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var fallback *types.BudgetRound
	for _, round := range f.sorted() {
		if round.Year != asOf.Year() {
			continue
		}
		fallback = round
		if round.StartDate == nil || round.EndDate == nil {
			continue
		}
		if !asOf.Before(*round.StartDate) && !asOf.After(*round.EndDate) {
			return round, nil
		}
	}
	if fallback == nil {
		return nil, types.ErrRoundNotFound
	}
	return fallback, nil
}

func (f *fakeRoundStore) CreateRound(_ context.Context, round *types.BudgetRound) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	round.ID = f.nextID
	f.nextID++
	round.CreatedAt = time.Now()
	round.UpdatedAt = round.CreatedAt

	dup := *round
	f.rounds[round.ID] = &dup
	return nil
}

func (f *fakeRoundStore) UpdateRound(_ context.Context, roundID int64, round *types.BudgetRound) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.rounds[roundID]; !ok {
		return types.ErrRoundNotFound
	}
	round.ID = roundID
	dup := *round
	f.rounds[roundID] = &dup
	return nil
}

func (f *fakeRoundStore) AllRounds(_ context.Context) ([]*types.BudgetRound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(), nil
}

type fakeTimelineStore struct {
	mu     sync.Mutex
	events []*types.TimelineEvent
}

func newFakeTimelineStore() *fakeTimelineStore {
	return &fakeTimelineStore{}
}

func (f *fakeTimelineStore) Append(_ context.Context, event *types.TimelineEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dup := *event
	f.events = append(f.events, &dup)
	return nil
}

func (f *fakeTimelineStore) Timeline(_ context.Context, caseID int64) ([]*types.TimelineEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*types.TimelineEvent, 0)
	for _, event := range f.events {
		if event.CaseID == caseID {
			dup := *event
			out = append(out, &dup)
		}
	}
	return out, nil
}

type fakeNoteStore struct {
	mu    sync.Mutex
	notes []*types.Note

	timeline *fakeTimelineStore
	eventErr error
}

func newFakeNoteStore() *fakeNoteStore {
	return &fakeNoteStore{}
}

func (f *fakeNoteStore) CreateNote(ctx context.Context, note *types.Note, event *types.TimelineEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.eventErr != nil {
		return f.eventErr
	}

	if f.timeline != nil {
		if err := f.timeline.Append(ctx, event); err != nil {
			return err
		}
	}

	note.ID = fmt.Sprintf("note-%d", len(f.notes)+1)
	note.CreatedAt = time.Now()
	dup := *note
	f.notes = append(f.notes, &dup)
	return nil
}

func (f *fakeNoteStore) NotesByCase(_ context.Context, caseID int64, includeRestricted bool) ([]*types.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*types.Note, 0)
	for _, note := range f.notes {
		if note.CaseID != caseID {
			continue
		}
		if note.Restricted && !includeRestricted {
			continue
		}
		dup := *note
		out = append(out, &dup)
	}
	return out, nil
}

type fakeMemberDirectory struct {
	members map[int64]*types.Member
}

func newFakeMemberDirectory() *fakeMemberDirectory {
	return &fakeMemberDirectory{members: make(map[int64]*types.Member)}
}

func (f *fakeMemberDirectory) Member(_ context.Context, memberID int64) (*types.Member, error) {
	member, ok := f.members[memberID]
	if !ok {
		return nil, types.ErrMemberNotFound
	}
	dup := *member
	return &dup, nil
}

func (f *fakeMemberDirectory) put(member *types.Member) {
	dup := *member
	f.members[member.ID] = &dup
}

type fakeNewcomerDirectory struct {
	newcomers map[int64]*types.Newcomer
}

func newFakeNewcomerDirectory() *fakeNewcomerDirectory {
	return &fakeNewcomerDirectory{newcomers: make(map[int64]*types.Newcomer)}
}

func (f *fakeNewcomerDirectory) Newcomer(_ context.Context, newcomerID int64) (*types.Newcomer, error) {
	newcomer, ok := f.newcomers[newcomerID]
	if !ok {
		return nil, types.ErrNewcomerNotFound
	}
	dup := *newcomer
	return &dup, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	sends []int64
	fail  bool
}

func (n *recordingNotifier) SendReminder(_ context.Context, c *types.SponsorshipCase, _ types.ReminderChannel) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fail {
		return fmt.Errorf("transport down")
	}
	n.sends = append(n.sends, c.ID)
	return nil
}

package app

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"vaccination_tracker/internal/domain/email"
	"vaccination_tracker/internal/domain/mother"
	"vaccination_tracker/internal/domain/reminder"
	"vaccination_tracker/internal/domain/schedule"
	idb "vaccination_tracker/internal/infra/database"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeMotherRepo struct {
	mu      sync.Mutex
	mothers map[uuid.UUID]*mother.Mother
	babies  map[uuid.UUID]*mother.Baby
}

func newFakeMotherRepo() *fakeMotherRepo {
	return &fakeMotherRepo{mothers: map[uuid.UUID]*mother.Mother{}, babies: map[uuid.UUID]*mother.Baby{}}
}

func (f *fakeMotherRepo) addMother(name, addr string) *mother.Mother {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &mother.Mother{ID: uuid.New(), FullName: name, Email: addr}
	f.mothers[m.ID] = m
	return m
}

func (f *fakeMotherRepo) addBaby(motherID uuid.UUID, name string, dob time.Time) *mother.Baby {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := &mother.Baby{ID: uuid.New(), MotherID: motherID, Name: name, DateOfBirth: dob, Gender: mother.GenderFemale}
	f.babies[b.ID] = b
	return b
}

func (f *fakeMotherRepo) GetByID(_ context.Context, id uuid.UUID) (*mother.Mother, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.mothers[id]
	if !ok {
		return nil, idb.ErrMotherNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMotherRepo) GetBaby(_ context.Context, motherID, babyID uuid.UUID) (*mother.Baby, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.babies[babyID]
	if !ok || b.MotherID != motherID {
		return nil, idb.ErrBabyNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeMotherRepo) ListBabies(_ context.Context, motherID uuid.UUID) ([]*mother.Baby, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*mother.Baby
	for _, b := range f.babies {
		if b.MotherID == motherID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeMotherRepo) AddBaby(_ context.Context, baby *mother.Baby) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.mothers[baby.MotherID]; !ok {
		return idb.ErrMotherNotFound
	}
	for _, b := range f.babies {
		if b.MotherID == baby.MotherID && b.Name == baby.Name {
			return idb.ErrDuplicateBabyName
		}
	}
	baby.ID = uuid.New()
	baby.CreatedAt = time.Now()
	cp := *baby
	f.babies[baby.ID] = &cp
	return nil
}

func (f *fakeMotherRepo) UpdateBirthDate(_ context.Context, motherID, babyID uuid.UUID, dob time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.babies[babyID]
	if !ok || b.MotherID != motherID {
		return idb.ErrBabyNotFound
	}
	b.DateOfBirth = dob
	return nil
}

type fakeScheduleRepo struct {
	entries []schedule.Entry
	err     error
}

func (f *fakeScheduleRepo) List(context.Context) ([]schedule.Entry, error) {
	return f.entries, f.err
}

func (f *fakeScheduleRepo) ListByAge(_ context.Context, age string) ([]schedule.Entry, error) {
	var out []schedule.Entry
	for _, e := range f.entries {
		if e.Age == age {
			out = append(out, e)
		}
	}
	return out, f.err
}

// fakeReminderRepo is an in-memory reminder store that joins recipients from a fakeMotherRepo.
type fakeReminderRepo struct {
	mu      sync.Mutex
	mothers *fakeMotherRepo
	rows    []*reminder.Reminder
	nextID  int64

	replaceCalls int
	replaceErr   error
	listDueErr   error
	markSentErr  error
	markSentIDs  [][]int64
}

func newFakeReminderRepo(mothers *fakeMotherRepo) *fakeReminderRepo {
	return &fakeReminderRepo{mothers: mothers}
}

func (f *fakeReminderRepo) ReplaceForBaby(_ context.Context, motherID, babyID uuid.UUID, reminders []*reminder.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.MotherID == motherID && r.BabyID == babyID {
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept

	unsent := make(map[reminder.Key]bool)
	for _, r := range f.rows {
		if !r.Sent {
			unsent[r.Key()] = true
		}
	}
	for _, r := range reminders {
		if !r.Sent && unsent[r.Key()] {
			return errors.New("unique_unsent_reminder violated")
		}
		unsent[r.Key()] = true
		f.nextID++
		r.ID = f.nextID
		cp := *r
		f.rows = append(f.rows, &cp)
	}
	return nil
}

func (f *fakeReminderRepo) ListByBaby(_ context.Context, motherID, babyID uuid.UUID) ([]*reminder.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*reminder.Reminder, 0)
	for _, r := range f.rows {
		if r.MotherID == motherID && r.BabyID == babyID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (f *fakeReminderRepo) ListDue(_ context.Context, t reminder.Type, now time.Time) ([]*reminder.Due, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listDueErr != nil {
		return nil, f.listDueErr
	}
	out := make([]*reminder.Due, 0)
	for _, r := range f.rows {
		if r.Type != t || r.Sent || r.ScheduledAt.After(now) {
			continue
		}
		m := f.mothers.mothers[r.MotherID]
		b := f.mothers.babies[r.BabyID]
		out = append(out, &reminder.Due{Reminder: *r, MotherName: m.FullName, MotherEmail: m.Email, BabyName: b.Name})
	}
	return out, nil
}

func (f *fakeReminderRepo) MarkSent(_ context.Context, ids []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markSentErr != nil {
		return 0, f.markSentErr
	}
	f.markSentIDs = append(f.markSentIDs, ids)
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for _, r := range f.rows {
		if want[r.ID] && !r.Sent {
			r.Sent = true
			n++
		}
	}
	return n, nil
}

func (f *fakeReminderRepo) CountPending(context.Context) (map[reminder.Type]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[reminder.Type]int{reminder.TypeWeekly: 0, reminder.TypeDaily: 0}
	for _, r := range f.rows {
		if !r.Sent {
			counts[r.Type]++
		}
	}
	return counts, nil
}

func (f *fakeReminderRepo) snapshot() []reminder.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]reminder.Reminder, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, *r)
	}
	return out
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Send(ctx context.Context, msg email.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vaccination_tracker/internal/app"
	"vaccination_tracker/internal/domain/mother"
	"vaccination_tracker/internal/domain/reminder"
	"vaccination_tracker/internal/domain/schedule"
)

const testSecret = "test-secret"

type mockBabyService struct {
	mock.Mock
}

func (m *mockBabyService) AddBaby(ctx context.Context, motherID uuid.UUID, name, dateOfBirth, gender string, now time.Time) (*mother.Baby, error) {
	args := m.Called(ctx, motherID, name, dateOfBirth, gender, now)
	b, _ := args.Get(0).(*mother.Baby)
	return b, args.Error(1)
}

func (m *mockBabyService) CorrectBirthDate(ctx context.Context, motherID, babyID uuid.UUID, birthDate string, now time.Time) (*mother.Baby, error) {
	args := m.Called(ctx, motherID, babyID, birthDate, now)
	b, _ := args.Get(0).(*mother.Baby)
	return b, args.Error(1)
}

func (m *mockBabyService) ProjectedSchedule(ctx context.Context, motherID, babyID uuid.UUID) ([]schedule.DueDate, error) {
	args := m.Called(ctx, motherID, babyID)
	d, _ := args.Get(0).([]schedule.DueDate)
	return d, args.Error(1)
}

func (m *mockBabyService) ListReminders(ctx context.Context, motherID, babyID uuid.UUID) ([]*reminder.Reminder, error) {
	args := m.Called(ctx, motherID, babyID)
	r, _ := args.Get(0).([]*reminder.Reminder)
	return r, args.Error(1)
}

func (m *mockBabyService) ListSchedule(ctx context.Context, age string) ([]schedule.Entry, error) {
	args := m.Called(ctx, age)
	e, _ := args.Get(0).([]schedule.Entry)
	return e, args.Error(1)
}

func (m *mockBabyService) ListBabies(ctx context.Context, motherID uuid.UUID) ([]*mother.Baby, error) {
	args := m.Called(ctx, motherID)
	b, _ := args.Get(0).([]*mother.Baby)
	return b, args.Error(1)
}

type mockReminderService struct {
	mock.Mock
}

func (m *mockReminderService) RegenerateReminders(ctx context.Context, motherID, babyID uuid.UUID, now time.Time) error {
	return m.Called(ctx, motherID, babyID, now).Error(0)
}

type apiFixture struct {
	babies    *mockBabyService
	reminders *mockReminderService
	router    *gin.Engine
	now       time.Time
	motherID  uuid.UUID
	token     string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l := logrus.New()
	l.SetOutput(io.Discard)
	logger := logrus.NewEntry(l)

	f := &apiFixture{
		babies:    &mockBabyService{},
		reminders: &mockReminderService{},
		now:       time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
		motherID:  uuid.New(),
	}
	h := NewHandler(f.babies, f.reminders, logger)
	h.now = func() time.Time { return f.now }
	f.router = NewRouter(h, RouterConfig{JWTSecret: testSecret, AllowedOrigins: []string{"http://localhost:5173"}}, logger)
	f.token = signToken(t, f.motherID.String(), testSecret)
	return f
}

func signToken(t *testing.T, userID, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		UserID: userID,
		Email:  "amina@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (f *apiFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuth(t *testing.T) {
	f := newAPIFixture(t)
	babyID := uuid.New()

	t.Run("missing header is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/reminder/"+babyID.String(), nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non bearer header is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/reminder/"+babyID.String(), nil)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret is 403", func(t *testing.T) {
		f.token = signToken(t, f.motherID.String(), "other-secret")
		w := f.do(http.MethodPost, "/api/reminder/"+babyID.String(), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Invalid token", decode(t, w)["error"])
	})

	t.Run("non uuid user is 403", func(t *testing.T) {
		f.token = signToken(t, "64b7f0c2e4b0a1a2b3c4d5e6", testSecret)
		w := f.do(http.MethodPost, "/api/reminder/"+babyID.String(), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	f.reminders.AssertNotCalled(t, "RegenerateReminders", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegenerateReminders(t *testing.T) {
	f := newAPIFixture(t)
	babyID := uuid.New()

	f.reminders.On("RegenerateReminders", mock.Anything, f.motherID, babyID, f.now).Return(nil).Once()
	w := f.do(http.MethodPost, "/api/reminder/"+babyID.String(), "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Reminders regenerated successfully", decode(t, w)["message"])

	missing := uuid.New()
	f.reminders.On("RegenerateReminders", mock.Anything, f.motherID, missing, f.now).Return(app.ErrBabyNotFound).Once()
	w = f.do(http.MethodPost, "/api/reminder/"+missing.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	broken := uuid.New()
	f.reminders.On("RegenerateReminders", mock.Anything, f.motherID, broken, f.now).Return(errors.New("pq: connection refused")).Once()
	w = f.do(http.MethodPost, "/api/reminder/"+broken.String(), "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")

	w = f.do(http.MethodPost, "/api/reminder/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.reminders.AssertExpectations(t)
}

func TestAddBaby(t *testing.T) {
	f := newAPIFixture(t)
	babyID := uuid.New()
	baby := &mother.Baby{ID: babyID, MotherID: f.motherID, Name: "Zawadi",
		DateOfBirth: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), Gender: mother.GenderFemale}

	f.babies.On("AddBaby", mock.Anything, f.motherID, "Zawadi", "2024-01-01", "female", f.now).Return(baby, nil).Once()
	w := f.do(http.MethodPost, "/api/baby", `{"babyName":"Zawadi","dateOfBirth":"2024-01-01","gender":"female"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, map[string]interface{}{
		"baby_id":       babyID.String(),
		"name":          "Zawadi",
		"date_of_birth": "2024-01-01",
		"gender":        "female",
	}, body["baby"])

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"duplicate", app.ErrDuplicateBabyName, http.StatusConflict},
		{"no profile", app.ErrMotherNotFound, http.StatusNotFound},
		{"bad gender", app.ErrInvalidGender, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.babies.On("AddBaby", mock.Anything, f.motherID, tt.name, "2024-01-01", "female", f.now).Return(nil, tt.err).Once()
			w := f.do(http.MethodPost, "/api/baby", `{"babyName":"`+tt.name+`","dateOfBirth":"2024-01-01","gender":"female"}`)
			assert.Equal(t, tt.code, w.Code)
		})
	}

	w = f.do(http.MethodPost, "/api/baby", `{"babyName":"Zawadi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodPost, "/api/baby", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCorrectBirthDate(t *testing.T) {
	f := newAPIFixture(t)
	babyID := uuid.New()
	baby := &mother.Baby{ID: babyID, Name: "Zawadi", DateOfBirth: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), Gender: mother.GenderFemale}

	f.babies.On("CorrectBirthDate", mock.Anything, f.motherID, babyID, "2024-02-01", f.now).Return(baby, nil).Once()
	w := f.do(http.MethodPut, "/api/baby/"+babyID.String()+"/birth-date", `{"birthDate":"2024-02-01"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-02-01", decode(t, w)["baby"].(map[string]interface{})["date_of_birth"])

	f.babies.On("CorrectBirthDate", mock.Anything, f.motherID, babyID, "2024-13-01", f.now).Return(nil, app.ErrInvalidBirthDate).Once()
	w = f.do(http.MethodPut, "/api/baby/"+babyID.String()+"/birth-date", `{"birthDate":"2024-13-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPut, "/api/baby/"+babyID.String()+"/birth-date", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "birthDate is required", decode(t, w)["error"])

	f.babies.AssertExpectations(t)
}

func TestBabyScheduleAndReminders(t *testing.T) {
	f := newAPIFixture(t)
	babyID := uuid.New()

	f.babies.On("ProjectedSchedule", mock.Anything, f.motherID, babyID).Return([]schedule.DueDate{{
		Entry:           schedule.Entry{ID: 2, Age: "6 weeks", Vaccine: "OPV1", ProtectionAgainst: "Polio"},
		VaccinationDate: time.Date(2024, time.February, 12, 0, 0, 0, 0, time.UTC),
	}}, nil).Once()
	w := f.do(http.MethodGet, "/api/baby/"+babyID.String()+"/schedule", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":2,"age":"6 weeks","vaccine":"OPV1","protection_against":"Polio","vaccination_date":"2024-02-12"}]`, w.Body.String())

	f.babies.On("ListReminders", mock.Anything, f.motherID, babyID).Return([]*reminder.Reminder{{
		ID: 9, Type: reminder.TypeWeekly, Vaccine: "OPV1",
		VaccinationDate: time.Date(2024, time.February, 12, 0, 0, 0, 0, time.UTC),
		ScheduledAt:     time.Date(2024, time.February, 5, 14, 0, 0, 0, time.UTC),
	}}, nil).Once()
	w = f.do(http.MethodGet, "/api/baby/"+babyID.String()+"/reminders", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":9,"type":"weekly","vaccine":"OPV1","vaccination_date":"2024-02-12","scheduled_at":"2024-02-05T14:00:00Z","sent":false}]`, w.Body.String())
}

func TestVaccinationSchedule(t *testing.T) {
	f := newAPIFixture(t)
	entries := []schedule.Entry{{ID: 1, Age: "birth", Vaccine: "BCG", ProtectionAgainst: "Tuberculosis"}}

	f.babies.On("ListSchedule", mock.Anything, "").Return(entries, nil).Once()
	f.babies.On("ListSchedule", mock.Anything, "birth").Return(entries, nil).Once()
	f.babies.On("ListSchedule", mock.Anything, "9 months").Return([]schedule.Entry{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/vaccination-schedule", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"age":"birth","vaccine":"BCG","protection_against":"Tuberculosis"}]`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/vaccination-schedule/birth", nil)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/vaccination-schedule/9%20months", nil)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	f.babies.AssertExpectations(t)
}

func TestCORSPreflight(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/baby", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestListBabies(t *testing.T) {
	f := newAPIFixture(t)

	f.babies.On("ListBabies", mock.Anything, f.motherID).Return([]*mother.Baby{{
		ID:          uuid.MustParse("6f1c2a7e-3b1d-4c55-9e61-0a4f3b2d8c11"),
		Name:        "Zawadi",
		DateOfBirth: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Gender:      mother.GenderFemale,
	}}, nil).Once()
	w := f.do(http.MethodGet, "/api/baby", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"babies":[{"baby_id":"6f1c2a7e-3b1d-4c55-9e61-0a4f3b2d8c11","name":"Zawadi","date_of_birth":"2024-01-01","gender":"female"}]}`, w.Body.String())

	f.babies.On("ListBabies", mock.Anything, f.motherID).Return(nil, app.ErrMotherNotFound).Once()
	w = f.do(http.MethodGet, "/api/baby", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.babies.AssertExpectations(t)
}

func TestRequestLoggerTagsMother(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	babies := &mockBabyService{}
	babies.On("ListBabies", mock.Anything, mock.Anything).Return([]*mother.Baby{}, nil)
	router := NewRouter(NewHandler(babies, &mockReminderService{}, logrus.NewEntry(logger)),
		RouterConfig{JWTSecret: testSecret, AllowedOrigins: []string{"http://localhost:5173"}}, logrus.NewEntry(logger))
	motherID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/baby", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, motherID.String(), testSecret))
	router.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "/api/baby", entry.Data["path"])
	assert.Equal(t, motherID, entry.Data["mother_id"])

	hook.Reset()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NotNil(t, hook.LastEntry())
	assert.NotContains(t, hook.LastEntry().Data, "mother_id")
}

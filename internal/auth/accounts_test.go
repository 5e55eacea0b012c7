package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/storefront/internal/ids"
	"github.com/mmynk/storefront/internal/models"
	"github.com/mmynk/storefront/internal/storage"
	"github.com/mmynk/storefront/internal/storage/storagetest"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAccounts(t *testing.T, rec *storagetest.Recorder) *AccountStore {
	t.Helper()
	return NewAccountStore(rec,
		WithIDs(ids.NewSequence(100)),
		WithClock(func() time.Time { return testNow }),
	)
}

func persisted(t *testing.T, rec *storagetest.Recorder) record {
	t.Helper()
	raw, found, err := rec.Get(context.Background(), StateKey)
	require.NoError(t, err)
	require.True(t, found, "expected %q to be persisted", StateKey)
	var r record
	require.NoError(t, json.Unmarshal(raw, &r))
	return r
}

func TestInitializeEmptyStore(t *testing.T) {
	rec := storagetest.NewRecorder()
	a := newTestAccounts(t, rec)

	state, err := a.Initialize(context.Background())
	require.NoError(t, err)

	require.Len(t, state.Accounts, 1)
	assert.Equal(t, DemoEmail, state.Accounts[0].Email)
	assert.Equal(t, DemoName, state.Accounts[0].Name)
	assert.False(t, state.Session.IsAuthenticated)
	assert.Nil(t, state.Session.User)
	assert.Empty(t, state.Session.Error)
	assert.Zero(t, rec.Sets(), "initialize must not write")
}

func TestInitializeRestoresDemoAccount(t *testing.T) {
	rec := storagetest.NewRecorder()
	ctx := context.Background()
	require.NoError(t, rec.Set(ctx, StateKey, []byte(`{
		"isAuthenticated": false,
		"user": null,
		"users": [{"id": 7, "name": "Ann", "email": "ann@x.com", "password": "secret1"}],
		"error": null
	}`)))

	state, err := newTestAccounts(t, rec).Initialize(ctx)
	require.NoError(t, err)

	require.Len(t, state.Accounts, 2)
	assert.Equal(t, "ann@x.com", state.Accounts[0].Email)
	assert.Equal(t, DemoEmail, state.Accounts[1].Email)
}

func TestInitializeMergesLegacyAccountsAndDropsDuplicates(t *testing.T) {
	rec := storagetest.NewRecorder()
	ctx := context.Background()
	require.NoError(t, rec.Set(ctx, StateKey, []byte(`{
		"users": [
			{"id": 1, "name": "Demo User", "email": "demo@example.com", "password": "demo123"},
			{"id": 2, "name": "Bob", "email": "bob@x.com", "password": "pw1234"}
		],
		"accounts": [
			{"id": 3, "name": "Bob again", "email": "bob@x.com", "password": "other1"},
			{"id": 4, "name": "Cy", "email": "cy@x.com", "password": "pw5678"},
			{"id": 5, "name": "No email", "email": "", "password": "pw0000"}
		]
	}`)))

	state, err := newTestAccounts(t, rec).Initialize(ctx)
	require.NoError(t, err)

	emails := make([]string, 0, len(state.Accounts))
	for _, u := range state.Accounts {
		emails = append(emails, u.Email)
	}
	assert.Equal(t, []string{"demo@example.com", "bob@x.com", "cy@x.com"}, emails)
	assert.Equal(t, "Bob", state.Accounts[1].Name)
}

func TestInitializeResetsDanglingSession(t *testing.T) {
	rec := storagetest.NewRecorder()
	ctx := context.Background()
	require.NoError(t, rec.Set(ctx, StateKey, []byte(`{
		"isAuthenticated": true,
		"user": {"id": 9, "name": "Ghost", "email": "ghost@x.com"},
		"users": []
	}`)))

	state, err := newTestAccounts(t, rec).Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, state.Session.IsAuthenticated)
	assert.Nil(t, state.Session.User)
}

func TestInitializeRejectsMalformedRecord(t *testing.T) {
	rec := storagetest.NewRecorder()
	ctx := context.Background()
	require.NoError(t, rec.Set(ctx, StateKey, []byte(`{not json`)))

	_, err := newTestAccounts(t, rec).Initialize(ctx)
	var perr *storage.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StateKey, perr.Key)
}

func TestInitializeSurfacesReadFailure(t *testing.T) {
	rec := storagetest.NewRecorder()
	rec.FailGets(errors.New("quota exceeded"))

	_, err := newTestAccounts(t, rec).Initialize(context.Background())
	var perr *storage.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "get", perr.Op)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh email authenticates", func(t *testing.T) {
		rec := storagetest.NewRecorder()
		a := newTestAccounts(t, rec)

		user, err := a.Register(ctx, "Ann", "ann@x.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, int64(100), user.ID)
		assert.Equal(t, "ann@x.com", user.Email)

		session, err := a.Session(ctx)
		require.NoError(t, err)
		assert.True(t, session.IsAuthenticated)
		require.NotNil(t, session.User)
		assert.Equal(t, "ann@x.com", session.User.Email)

		r := persisted(t, rec)
		assert.True(t, r.IsAuthenticated)
		require.Len(t, r.Users, 2)
		assert.Equal(t, "secret1", r.Users[1].Password)
		assert.True(t, testNow.Equal(r.Users[1].CreatedAt))
		assert.Nil(t, r.Error)
		assert.Equal(t, 1, rec.Sets())
	})

	t.Run("duplicate email fails without touching accounts", func(t *testing.T) {
		rec := storagetest.NewRecorder()
		a := newTestAccounts(t, rec)

		_, err := a.Register(ctx, "Imposter", DemoEmail, "whatever")
		require.ErrorIs(t, err, ErrEmailExists)

		accounts, err := a.Accounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, DemoName, accounts[0].Name)

		session, err := a.Session(ctx)
		require.NoError(t, err)
		assert.False(t, session.IsAuthenticated)
		assert.Equal(t, msgEmailExists, session.Error)

		r := persisted(t, rec)
		require.NotNil(t, r.Error)
		assert.Equal(t, msgEmailExists, *r.Error)
		assert.Len(t, r.Users, 1)
	})

	t.Run("next success clears error", func(t *testing.T) {
		a := newTestAccounts(t, storagetest.NewRecorder())

		_, err := a.Register(ctx, "Imposter", DemoEmail, "whatever")
		require.Error(t, err)
		_, err = a.Register(ctx, "Bo", "bo@x.com", "secret2")
		require.NoError(t, err)

		session, err := a.Session(ctx)
		require.NoError(t, err)
		assert.Empty(t, session.Error)
	})

	t.Run("validation errors write nothing", func(t *testing.T) {
		cases := []struct {
			name, email, password, field string
		}{
			{"", "a@x.com", "secret1", "name"},
			{"A", "", "secret1", "email"},
			{"A", "ax.com", "secret1", "email"},
			{"A", "a@x.com", "", "password"},
			{"A", "a@x.com", "12345", "password"},
		}
		for _, tc := range cases {
			rec := storagetest.NewRecorder()
			a := newTestAccounts(t, rec)

			_, err := a.Register(ctx, tc.name, tc.email, tc.password)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Zero(t, rec.Sets())
		}
	})

	t.Run("duplicate email wins over field validation", func(t *testing.T) {
		for _, password := range []string{"abc", ""} {
			rec := storagetest.NewRecorder()
			a := newTestAccounts(t, rec)

			_, err := a.Register(ctx, "", DemoEmail, password)
			require.ErrorIs(t, err, ErrEmailExists)

			var verr *models.ValidationError
			assert.False(t, errors.As(err, &verr))
			assert.Equal(t, msgEmailExists, *persisted(t, rec).Error)
		}
	})

	t.Run("fresh email with short password is a validation error", func(t *testing.T) {
		rec := storagetest.NewRecorder()
		a := newTestAccounts(t, rec)

		_, err := a.Register(ctx, "X", "x@x.com", "abc")
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "password", verr.Field)
		assert.NotErrorIs(t, err, ErrEmailExists)
		assert.Zero(t, rec.Sets())
	})

	t.Run("generated id skips existing ids", func(t *testing.T) {
		a := NewAccountStore(storagetest.NewRecorder(), WithIDs(ids.NewSequence(1)))

		user, err := a.Register(ctx, "Ann", "ann@x.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), user.ID)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("demo credentials succeed on fresh store", func(t *testing.T) {
		rec := storagetest.NewRecorder()
		a := newTestAccounts(t, rec)

		user, err := a.Login(ctx, DemoEmail, DemoPassword)
		require.NoError(t, err)
		assert.Equal(t, int64(demoID), user.ID)

		admin, err := a.IsAdmin(ctx)
		require.NoError(t, err)
		assert.True(t, admin)
		assert.Equal(t, 1, rec.Sets())
	})

	t.Run("matching is case sensitive", func(t *testing.T) {
		a := newTestAccounts(t, storagetest.NewRecorder())

		_, err := a.Login(ctx, "Demo@example.com", DemoPassword)
		require.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = a.Login(ctx, DemoEmail, "DEMO123")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("failure keeps accounts and persists error", func(t *testing.T) {
		rec := storagetest.NewRecorder()
		a := newTestAccounts(t, rec)

		_, err := a.Login(ctx, "nobody@x.com", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		accounts, err := a.Accounts(ctx)
		require.NoError(t, err)
		assert.Len(t, accounts, 1)

		r := persisted(t, rec)
		require.NotNil(t, r.Error)
		assert.Equal(t, msgInvalidCredentials, *r.Error)
	})

	t.Run("failure does not log out an active session", func(t *testing.T) {
		a := newTestAccounts(t, storagetest.NewRecorder())

		_, err := a.Login(ctx, DemoEmail, DemoPassword)
		require.NoError(t, err)
		_, err = a.Login(ctx, DemoEmail, "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		session, err := a.Session(ctx)
		require.NoError(t, err)
		assert.True(t, session.IsAuthenticated)
		require.NotNil(t, session.User)
		assert.Equal(t, DemoEmail, session.User.Email)
		assert.Equal(t, msgInvalidCredentials, session.Error)
	})

	t.Run("empty fields are invalid credentials", func(t *testing.T) {
		for _, tc := range []struct{ email, password string }{
			{DemoEmail, ""},
			{"", DemoPassword},
			{"", ""},
		} {
			rec := storagetest.NewRecorder()
			a := newTestAccounts(t, rec)

			_, err := a.Login(ctx, tc.email, tc.password)
			require.ErrorIs(t, err, ErrInvalidCredentials)

			session, err := a.Session(ctx)
			require.NoError(t, err)
			assert.False(t, session.IsAuthenticated)
			assert.Equal(t, msgInvalidCredentials, session.Error)
			assert.Equal(t, 1, rec.Sets())
		}
	})
}

func TestLogoutIdempotent(t *testing.T) {
	ctx := context.Background()
	rec := storagetest.NewRecorder()
	a := newTestAccounts(t, rec)

	_, err := a.Login(ctx, DemoEmail, DemoPassword)
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx))
	first := persisted(t, rec)
	require.NoError(t, a.Logout(ctx))
	second := persisted(t, rec)

	assert.Equal(t, first, second)
	assert.False(t, second.IsAuthenticated)
	assert.Nil(t, second.User)
	assert.Len(t, second.Users, 1, "logout keeps accounts")
}

func TestSessionSurvivesReload(t *testing.T) {
	ctx := context.Background()
	rec := storagetest.NewRecorder()

	_, err := newTestAccounts(t, rec).Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	state, err := newTestAccounts(t, rec).Initialize(ctx)
	require.NoError(t, err)
	assert.True(t, state.Session.IsAuthenticated)
	assert.Equal(t, "ann@x.com", state.Session.User.Email)
	assert.Len(t, state.Accounts, 2)
}

func TestPersistenceFailureKeepsInMemoryTransition(t *testing.T) {
	ctx := context.Background()
	rec := storagetest.NewRecorder()
	a := newTestAccounts(t, rec)
	rec.FailSets(errors.New("quota exceeded"))

	_, err := a.Login(ctx, DemoEmail, DemoPassword)
	var perr *storage.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "set", perr.Op)

	session, err := a.Session(ctx)
	require.NoError(t, err)
	assert.True(t, session.IsAuthenticated)

	_, err = a.Login(ctx, DemoEmail, "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.ErrorAs(t, err, &perr)
}

func TestSessionReturnsCopy(t *testing.T) {
	ctx := context.Background()
	a := newTestAccounts(t, storagetest.NewRecorder())
	_, err := a.Login(ctx, DemoEmail, DemoPassword)
	require.NoError(t, err)

	s, err := a.Session(ctx)
	require.NoError(t, err)
	s.User.Email = "mallory@x.com"

	again, err := a.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, DemoEmail, again.User.Email)
}

func TestRegisterLogoutLoginFlow(t *testing.T) {
	ctx := context.Background()
	a := newTestAccounts(t, storagetest.NewRecorder())

	_, err := a.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	s, err := a.Session(ctx)
	require.NoError(t, err)
	require.True(t, s.IsAuthenticated)
	assert.Equal(t, "ann@x.com", s.User.Email)

	require.NoError(t, a.Logout(ctx))

	_, err = a.Login(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)
	before, err := a.Session(ctx)
	require.NoError(t, err)

	_, err = a.Login(ctx, "ann@x.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	after, err := a.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.IsAuthenticated, after.IsAuthenticated)
	assert.Equal(t, before.User, after.User)
}

func TestStoresSharingOneRecordSeeEachOthersWrites(t *testing.T) {
	ctx := context.Background()
	rec := storagetest.NewRecorder()
	server := NewAccountStore(rec, WithIDs(ids.NewSequence(100)))
	cli := NewAccountStore(rec, WithIDs(ids.NewSequence(200)))

	_, err := server.Initialize(ctx)
	require.NoError(t, err)

	_, err = cli.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	// The server's next write must not drop the account registered elsewhere.
	_, err = server.Register(ctx, "Bo", "bo@x.com", "secret2")
	require.NoError(t, err)

	r := persisted(t, rec)
	emails := make([]string, 0, len(r.Users))
	for _, u := range r.Users {
		emails = append(emails, u.Email)
	}
	assert.ElementsMatch(t, []string{DemoEmail, "ann@x.com", "bo@x.com"}, emails)

	session, err := cli.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bo@x.com", session.User.Email)
}

func TestRecoveredWriteResumesReading(t *testing.T) {
	ctx := context.Background()
	rec := storagetest.NewRecorder()
	a := newTestAccounts(t, rec)

	rec.FailSets(errors.New("quota exceeded"))
	_, err := a.Login(ctx, DemoEmail, DemoPassword)
	require.Error(t, err)

	rec.FailSets(nil)
	require.NoError(t, a.Logout(ctx))

	_, err = NewAccountStore(rec).Login(ctx, DemoEmail, DemoPassword)
	require.NoError(t, err)

	admin, err := a.IsAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, admin, "login by another store is visible once writes succeed")
}

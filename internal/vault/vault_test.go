package vault_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/store/memory"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/vault"
)

var secret = []byte("vault-test-secret")

func TestLuhn(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"4242424242424242", true},
		{"4242424242424241", false},
		{"378282246310005", true},
		{"5555555555554444", true},
		{"6011111111111117", true},
		{"4242", false},
		{"42424242424242424242", false},
		{"4242x24242424242", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, vault.Luhn(tt.number), tt.number)
	}
}

func TestBrandOf(t *testing.T) {
	assert.Equal(t, vault.BrandVisa, vault.BrandOf("4242424242424242"))
	assert.Equal(t, vault.BrandMastercard, vault.BrandOf("5555555555554444"))
	assert.Equal(t, vault.BrandAmex, vault.BrandOf("378282246310005"))
	assert.Equal(t, vault.BrandDiscover, vault.BrandOf("6011111111111117"))
	assert.Equal(t, vault.BrandCard, vault.BrandOf("3530111333300000"))
}

func TestValidateCard(t *testing.T) {
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	m, err := vault.ValidateCard(vault.CardInput{Number: "4242 4242-4242 4242", ExpMonth: 3, ExpYear: 26, Label: " Personal "}, now)
	require.NoError(t, err)
	assert.Equal(t, vault.BrandVisa, m.Brand)
	assert.Equal(t, "4242", m.Last4)
	assert.Equal(t, 2026, m.ExpYear)
	assert.Equal(t, "Personal", m.Label)

	bad := []vault.CardInput{
		{Number: "4242424242424241", ExpMonth: 1, ExpYear: 2030},
		{Number: "4242424242424242", ExpMonth: 13, ExpYear: 2030},
		{Number: "4242424242424242", ExpMonth: 0, ExpYear: 2030},
		{Number: "4242424242424242", ExpMonth: 2, ExpYear: 2026},
		{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2025},
		{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2043},
	}
	for _, in := range bad {
		_, err := vault.ValidateCard(in, now)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "%+v", in)
	}
}

type fixture struct {
	svc      *vault.Service
	customer user.Caller
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		svc:      vault.NewService(memory.New(), secret, vault.DefaultPolicy),
		customer: user.Caller{ID: "cust-1", Role: user.RoleCustomer},
		now:      time.Now(),
	}
	f.svc.SetClock(func() time.Time { return f.now })
	return f
}

func TestSetPinOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	has, err := f.svc.HasPin(ctx, f.customer)
	require.NoError(t, err)
	assert.False(t, has)

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(f.svc.SetPin(ctx, f.customer, "12", "12")))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(f.svc.SetPin(ctx, f.customer, "12a4", "12a4")))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(f.svc.SetPin(ctx, f.customer, "1234", "4321")))

	pro := user.Caller{ID: "pro-1", Role: user.RolePro}
	assert.True(t, apperr.HasReason(f.svc.SetPin(ctx, pro, "1234", "1234"), apperr.ReasonWrongRole))

	require.NoError(t, f.svc.SetPin(ctx, f.customer, "1234", "1234"))
	has, err = f.svc.HasPin(ctx, f.customer)
	require.NoError(t, err)
	assert.True(t, has)

	err = f.svc.SetPin(ctx, f.customer, "5678", "5678")
	assert.True(t, apperr.HasReason(err, apperr.ReasonPinAlreadySet))
}

func TestUnlockWithoutPin(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Unlock(context.Background(), f.customer, "1234")
	assert.True(t, apperr.HasReason(err, apperr.ReasonPinNotSet))
}

func TestUnlockLockout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SetPin(ctx, f.customer, "2468", "2468"))

	for i := 0; i < vault.DefaultPolicy.MaxAttempts; i++ {
		_, err := f.svc.Unlock(ctx, f.customer, "0000")
		require.True(t, apperr.HasReason(err, apperr.ReasonWrongPin), "attempt %d: %v", i+1, err)
	}

	// Even the right PIN is refused while locked.
	_, err := f.svc.Unlock(ctx, f.customer, "2468")
	assert.True(t, apperr.HasReason(err, apperr.ReasonPinLocked))

	f.now = f.now.Add(vault.DefaultPolicy.Lockout + time.Second)
	sess, err := f.svc.Unlock(ctx, f.customer, "2468")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.NoError(t, f.svc.CheckSession(f.customer, sess.Token))
}

func TestSuccessResetsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SetPin(ctx, f.customer, "2468", "2468"))

	for i := 0; i < vault.DefaultPolicy.MaxAttempts-1; i++ {
		_, err := f.svc.Unlock(ctx, f.customer, "0000")
		require.True(t, apperr.HasReason(err, apperr.ReasonWrongPin))
	}
	_, err := f.svc.Unlock(ctx, f.customer, "2468")
	require.NoError(t, err)

	// The counter started over, so one more miss is not a lockout.
	_, err = f.svc.Unlock(ctx, f.customer, "0000")
	assert.True(t, apperr.HasReason(err, apperr.ReasonWrongPin))
	_, err = f.svc.Unlock(ctx, f.customer, "2468")
	assert.NoError(t, err)
}

func TestClearLockout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SetPin(ctx, f.customer, "2468", "2468"))
	for i := 0; i < vault.DefaultPolicy.MaxAttempts; i++ {
		_, _ = f.svc.Unlock(ctx, f.customer, "9999")
	}
	require.NoError(t, f.svc.ClearLockout(ctx, f.customer.ID))
	_, err := f.svc.Unlock(ctx, f.customer, "2468")
	assert.NoError(t, err)
}

func TestCheckSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SetPin(ctx, f.customer, "2468", "2468"))

	assert.True(t, apperr.HasReason(f.svc.CheckSession(f.customer, ""), apperr.ReasonVaultLocked))

	sess, err := f.svc.Unlock(ctx, f.customer, "2468")
	require.NoError(t, err)
	other := user.Caller{ID: "cust-2", Role: user.RoleCustomer}
	assert.True(t, apperr.HasReason(f.svc.CheckSession(other, sess.Token), apperr.ReasonVaultLocked))
	assert.True(t, apperr.HasReason(f.svc.CheckSession(f.customer, sess.Token+"x"), apperr.ReasonVaultLocked))
}

func TestMethods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.AddMethod(ctx, f.customer, vault.CardInput{
		Number:   "5555555555554444",
		ExpMonth: 12,
		ExpYear:  f.now.Year() + 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "4444", m.Last4)
	assert.Equal(t, f.customer.ID, m.CustomerID)

	list, err := f.svc.Methods(ctx, f.customer)
	require.NoError(t, err)
	require.Len(t, list, 1)

	other := user.Caller{ID: "cust-2", Role: user.RoleCustomer}
	_, err = f.svc.Method(ctx, other, m.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, f.svc.RemoveMethod(ctx, f.customer, m.ID))
	list, err = f.svc.Methods(ctx, f.customer)
	require.NoError(t, err)
	assert.Empty(t, list)
}

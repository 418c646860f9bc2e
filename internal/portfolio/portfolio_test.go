package portfolio_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/portfolio"
	"github.com/sudo-init-do/fixhub/internal/store/memory"
	"github.com/sudo-init-do/fixhub/internal/user"
)

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := portfolio.NewService(memory.New())
	pro := user.Caller{ID: "pro-1", Role: user.RolePro}

	_, err := svc.Create(ctx, user.Caller{ID: "c1", Role: user.RoleCustomer}, "hi", []string{"a.png"})
	assert.True(t, apperr.HasReason(err, apperr.ReasonWrongRole))

	_, err = svc.Create(ctx, pro, "no photos", []string{" ", ""})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	p, err := svc.Create(ctx, pro, "  ", []string{" a.png ", "", "b.png"})
	require.NoError(t, err)
	assert.Equal(t, portfolio.DefaultCaption, p.Caption)
	assert.Equal(t, []string{"a.png", "b.png"}, p.Photos)
	assert.Equal(t, "pro-1", p.ProID)
}

func TestListAndLike(t *testing.T) {
	ctx := context.Background()
	svc := portfolio.NewService(memory.New())
	pro := user.Caller{ID: "pro-1", Role: user.RolePro}

	first, err := svc.Create(ctx, pro, "Kitchen sink", []string{"1.png"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, pro, "Water heater", []string{"2.png"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.Caller{ID: "pro-2", Role: user.RolePro}, "Other", []string{"3.png"})
	require.NoError(t, err)

	posts, err := svc.List(ctx, "pro-1")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)

	liked, err := svc.Like(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Likes)
	liked, err = svc.Like(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, liked.Likes)

	_, err = svc.Like(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/wash-dispatch/internal/models"
	"github.com/example/wash-dispatch/internal/presence"
)

func TestRecoverCustomerRebindsEndpoint(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.online(t, "p1", "sock-p1", "carwash", 0, 0)
	require.NoError(t, r.engine.DispatchDirect(ctx, directReq("o1", "c1", "p1")))

	res, err := r.engine.RecoverSession(ctx, "c1", UserCustomer, "sock-c1-new")
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	require.Equal(t, "o1", res.Order.OrderID)

	o, _ := r.store.GetOrderBy(ctx, presence.OrderByID, "o1")
	require.Equal(t, "sock-c1-new", o.CustomerUUID)

	sessions := r.emits.byEvent(EvOutActiveSession)
	require.Len(t, sessions, 1)
	require.Equal(t, "sock-c1-new", sessions[0].Endpoint)
	payload := sessions[0].Payload.(map[string]any)
	require.Equal(t, models.StepNotAcceptedByProvider.String(), payload["step"])
}

func TestRecoverCustomerWithoutOrderIsNormal(t *testing.T) {
	r := newRig(t)
	res, err := r.engine.RecoverSession(context.Background(), "c1", UserCustomer, "sock-c1")
	require.NoError(t, err)
	require.Nil(t, res.Order)
	require.Zero(t, r.emits.count())
}

func TestRecoverProviderFreshLogin(t *testing.T) {
	r := newRig(t)
	res, err := r.engine.RecoverSession(context.Background(), "p1", UserProvider, "sock-p1")
	require.NoError(t, err)
	require.True(t, res.FreshLogin)
	require.Nil(t, res.Order)
}

func TestSecondDeviceTakeoverRebindsWithoutRemovingOrder(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.online(t, "p1", "sock-old", "carwash", 0, 0)
	require.NoError(t, r.engine.DispatchDirect(ctx, directReq("o1", "c1", "p1")))
	require.NoError(t, r.engine.Accept(ctx, "p1", "o1"))

	res, err := r.engine.RecoverSession(ctx, "p1", UserProvider, "sock-new")
	require.NoError(t, err)
	require.True(t, res.TookOver)
	require.Equal(t, "sock-old", res.OldEndpoint)
	require.NotNil(t, res.Order)

	kicks := r.emits.byEvent(EvOutForceLogout)
	require.Len(t, kicks, 1)
	require.Equal(t, "sock-old", kicks[0].Endpoint)

	p, _ := r.store.GetProviderBy(ctx, presence.ProviderByUserID, "p1")
	require.Equal(t, "sock-new", p.UUID)
	require.Equal(t, models.ProviderHaveOrder, p.Status, "status untouched by takeover")

	o, _ := r.store.GetOrderBy(ctx, presence.OrderByID, "o1")
	require.NotNil(t, o, "in-progress order survives the takeover")
	require.Equal(t, "sock-new", o.ProviderUUID)
	require.Equal(t, models.StepInProgressNotArrived, o.Step)
}

func TestRecoverProviderSameEndpointNoOrder(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.online(t, "p1", "sock-p1", "carwash", 0, 0)

	res, err := r.engine.RecoverSession(ctx, "p1", UserProvider, "sock-p1")
	require.NoError(t, err)
	require.False(t, res.FreshLogin)
	require.False(t, res.TookOver)
	require.Nil(t, res.Order, "online with no active order is a normal outcome")
}

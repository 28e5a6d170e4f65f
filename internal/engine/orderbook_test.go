package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderbook(t *testing.T) *Orderbook {
	t.Helper()
	ob, err := NewOrderbook(1, 999_999, 1)
	require.NoError(t, err)
	return ob
}

func limitTicket(side Side, price, size int64) OrderTicket {
	return OrderTicket{Side: side, Size: size, Type: LimitTicket, Price: price}
}

func marketTicket(side Side, size int64) OrderTicket {
	return OrderTicket{Side: side, Size: size, Type: MarketTicket}
}

func TestOrderbook_BasicLimitInsertAndTopOfBook(t *testing.T) {
	ob := newTestOrderbook(t)

	_, err := ob.AcceptOrder(limitTicket(Buy, 100, 10))
	require.NoError(t, err)
	_, err = ob.AcceptOrder(limitTicket(Buy, 101, 5))
	require.NoError(t, err)
	_, err = ob.AcceptOrder(limitTicket(Buy, 99, 7))
	require.NoError(t, err)

	_, err = ob.AcceptOrder(limitTicket(Sell, 105, 8))
	require.NoError(t, err)
	_, err = ob.AcceptOrder(limitTicket(Sell, 103, 12))
	require.NoError(t, err)

	bestBid, ok := ob.BestBid()
	require.True(t, ok)
	bestAsk, ok := ob.BestAsk()
	require.True(t, ok)

	assert.Equal(t, PriceSize{Price: 101, Size: 5}, bestBid)
	assert.Equal(t, PriceSize{Price: 103, Size: 12}, bestAsk)
	assert.Less(t, bestBid.Price, bestAsk.Price)
}

func TestOrderbook_MarketOrderPartialFill(t *testing.T) {
	ob := newTestOrderbook(t)
	_, err := ob.AcceptOrder(limitTicket(Sell, 100, 10))
	require.NoError(t, err)
	_, err = ob.AcceptOrder(limitTicket(Sell, 101, 20))
	require.NoError(t, err)

	resp, err := ob.AcceptOrder(marketTicket(Buy, 5))
	require.NoError(t, err)

	market, ok := resp.(MarketOrderResponse)
	require.True(t, ok, "expected a market response")
	assert.Equal(t, int64(5), market.Size)
	assert.Equal(t, int64(5*100), market.Notional)

	bestAsk, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, PriceSize{Price: 100, Size: 5}, bestAsk)
}

func TestOrderbook_MarketOrderMultiLevelSweep(t *testing.T) {
	ob := newTestOrderbook(t)
	for i, price := range []int64{100, 101, 102} {
		_, err := ob.AcceptOrder(limitTicket(Sell, price, 10))
		require.NoError(t, err, "seeding level %d", i)
	}

	resp, err := ob.AcceptOrder(marketTicket(Buy, 25))
	require.NoError(t, err)

	market := resp.(MarketOrderResponse)
	assert.Equal(t, int64(25), market.Size)
	assert.Equal(t, int64(10*100+10*101+5*102), market.Notional)

	bestAsk, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, PriceSize{Price: 102, Size: 5}, bestAsk)
}

func TestOrderbook_CrossingLimitBecomesTaker(t *testing.T) {
	ob := newTestOrderbook(t)
	_, err := ob.AcceptOrder(limitTicket(Sell, 100, 10))
	require.NoError(t, err)

	resp, err := ob.AcceptOrder(limitTicket(Buy, 105, 5))
	require.NoError(t, err)

	market, ok := resp.(MarketOrderResponse)
	require.True(t, ok, "a crossing limit must execute as taker flow, not rest")
	assert.Equal(t, int64(5), market.Size)
	assert.Equal(t, int64(5*100), market.Notional)

	bestAsk, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(5), bestAsk.Size)
}

func TestOrderbook_CancelThenMarketReMatchesAroundTheGap(t *testing.T) {
	ob := newTestOrderbook(t)
	_, err := ob.AcceptOrder(limitTicket(Sell, 2, 10))
	require.NoError(t, err)
	midResp, err := ob.AcceptOrder(limitTicket(Sell, 3, 10))
	require.NoError(t, err)
	_, err = ob.AcceptOrder(limitTicket(Sell, 4, 10))
	require.NoError(t, err)

	mid := midResp.(LimitOrderResponse)
	require.NoError(t, ob.CancelOrder(mid.ID))

	resp, err := ob.AcceptOrder(marketTicket(Buy, 15))
	require.NoError(t, err)
	market := resp.(MarketOrderResponse)
	assert.Equal(t, int64(10*2+5*4), market.Notional)

	bestAsk, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, PriceSize{Price: 4, Size: 5}, bestAsk)
}

func TestOrderbook_BuyTopOfBookMovesDownAfterMatch(t *testing.T) {
	ob := newTestOrderbook(t)
	_, err := ob.AcceptOrder(limitTicket(Buy, 8, 10))
	require.NoError(t, err)
	_, err = ob.AcceptOrder(limitTicket(Buy, 6, 10))
	require.NoError(t, err)

	_, err = ob.AcceptOrder(marketTicket(Sell, 10))
	require.NoError(t, err)

	bestBid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, PriceSize{Price: 6, Size: 10}, bestBid)
}

func TestOrderbook_LiquidityTracking(t *testing.T) {
	ob := newTestOrderbook(t)
	_, err := ob.AcceptOrder(limitTicket(Buy, 100, 10))
	require.NoError(t, err)
	_, err = ob.AcceptOrder(limitTicket(Buy, 101, 5))
	require.NoError(t, err)
	_, err = ob.AcceptOrder(limitTicket(Sell, 105, 20))
	require.NoError(t, err)

	assert.Equal(t, int64(15), ob.TotalLiquidity(Buy))
	assert.Equal(t, int64(20), ob.TotalLiquidity(Sell))

	_, err = ob.AcceptOrder(marketTicket(Sell, 8))
	require.NoError(t, err)

	assert.Equal(t, int64(7), ob.TotalLiquidity(Buy))
}

func TestOrderbook_ModifyRoutesThroughTheOwningSide(t *testing.T) {
	ob := newTestOrderbook(t)
	resp, err := ob.AcceptOrder(limitTicket(Buy, 100, 10))
	require.NoError(t, err)
	id := resp.(LimitOrderResponse).ID

	require.NoError(t, ob.ModifyOrder(id, 100, 3))
	bestBid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(3), bestBid.Size)

	err = ob.ModifyOrder(9999, 100, 1)
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestOrderbook_CancelUnknownIDFails(t *testing.T) {
	ob := newTestOrderbook(t)
	err := ob.CancelOrder(1)
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestOrderbook_NoCrossedBookAcrossSimulatedFlow(t *testing.T) {
	ob := newTestOrderbook(t)

	for i := int64(0); i < 10; i++ {
		_, err := ob.AcceptOrder(limitTicket(Buy, 100-i, 10))
		require.NoError(t, err)
		_, err = ob.AcceptOrder(limitTicket(Sell, 101+i, 10))
		require.NoError(t, err)
	}

	for i := int64(0); i < 100; i++ {
		var err error
		switch {
		case i%3 == 0:
			_, err = ob.AcceptOrder(marketTicket(Buy, 3))
		case i%3 == 1:
			_, err = ob.AcceptOrder(marketTicket(Sell, 2))
		default:
			_, err = ob.AcceptOrder(limitTicket(Buy, 100+(i%5), 1))
		}
		require.NoError(t, err)

		bestBid, hasBid := ob.BestBid()
		bestAsk, hasAsk := ob.BestAsk()
		if hasBid && hasAsk {
			assert.Less(t, bestBid.Price, bestAsk.Price, "iteration %d produced a crossed book", i)
		}
	}

	assert.GreaterOrEqual(t, ob.TotalLiquidity(Buy), int64(0))
	assert.GreaterOrEqual(t, ob.TotalLiquidity(Sell), int64(0))
}

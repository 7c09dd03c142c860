package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealdash/backend/internal/models"
)

func outlookDeal(owner, dealType, name string, amount float64) models.ResolvedDeal {
	d := models.ResolvedDeal{
		Deal: models.Deal{
			Name:            name,
			DealType:        dealType,
			WonAmount:       &amount,
			TargetCloseDate: date(2024, time.July, 1),
		},
	}
	if owner != "" {
		d.OwnerName = &owner
	}
	return d
}

func TestBuildOutlookSelectsScheduledDeals(t *testing.T) {
	scheduled := outlookDeal("Hanako Sato", "新規", "A社 提案", 1500)

	deliveryOnly := outlookDeal("Hanako Sato", "更新", "B社 更新", 800)
	deliveryOnly.TargetCloseDate = nil
	deliveryOnly.DeliveryDate = date(2024, time.August, 1)

	noDates := outlookDeal("Taro Suzuki", "新規", "C社 新規", 2000)
	noDates.TargetCloseDate = nil

	out := BuildOutlook([]models.ResolvedDeal{scheduled, deliveryOnly, noDates})
	require.Len(t, out.Rows, 2, "deals without target or delivery date are not pipeline")
	assert.Equal(t, 2, out.Totals.Deals)
	assert.Equal(t, 2300.0, out.Totals.AmountTotal)
	assert.Equal(t, 1, out.Totals.Owners)
	assert.Equal(t, 2, out.Totals.DealTypes)
}

func TestBuildOutlookMissingFieldsGetPlaceholders(t *testing.T) {
	d := outlookDeal("", "", "不明案件", 0)
	d.WonAmount = nil

	out := BuildOutlook([]models.ResolvedDeal{d})
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "未設定", out.Rows[0].Owner)
	assert.Equal(t, "未設定", out.Rows[0].DealType)
	assert.Zero(t, out.Rows[0].Amount)
	assert.Equal(t, "受注目標: 2024-07-01", out.Rows[0].Schedule)
}

func TestBuildOutlookRowOrdering(t *testing.T) {
	out := BuildOutlook([]models.ResolvedDeal{
		outlookDeal("Hanako Sato", "新規", "小型", 500),
		outlookDeal("Hanako Sato", "新規", "大型", 3000),
		outlookDeal("Aiko Tanaka", "更新", "別担当", 100),
	})
	require.Len(t, out.Rows, 3)
	assert.Equal(t, "Aiko Tanaka", out.Rows[0].Owner, "owner ascending first")
	assert.Equal(t, "大型", out.Rows[1].Name, "amount descending within owner and type")
	assert.Equal(t, "小型", out.Rows[2].Name)
}

func TestBuildOutlookSummariesAndPivot(t *testing.T) {
	out := BuildOutlook([]models.ResolvedDeal{
		outlookDeal("Hanako Sato", "新規", "A", 1000),
		outlookDeal("Hanako Sato", "更新", "B", 500),
		outlookDeal("Taro Suzuki", "新規", "C", 2000),
	})

	require.Len(t, out.ByOwner, 2)
	assert.Equal(t, "Taro Suzuki", out.ByOwner[0].Owner, "summaries sort by amount descending")
	assert.Equal(t, 2000.0, out.ByOwner[0].AmountTotal)
	assert.Equal(t, 2, out.ByOwner[1].DealTypes)

	require.Len(t, out.ByType, 2)
	assert.Equal(t, "新規", out.ByType[0].DealType)
	assert.Equal(t, 3000.0, out.ByType[0].AmountTotal)
	assert.Equal(t, 2, out.ByType[0].Owners)

	// Pivot carries 合計 margins on both axes.
	require.Equal(t, []string{"Hanako Sato", "Taro Suzuki", "合計"}, out.Pivot.Owners)
	require.Equal(t, []string{"新規", "更新", "合計"}, out.Pivot.Types)
	assert.Equal(t, [][]float64{
		{1000, 500, 1500},
		{2000, 0, 2000},
		{3000, 500, 3500},
	}, out.Pivot.Sums)
}

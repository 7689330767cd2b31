package services_test

import (
	"math"
	"testing"
	"time"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/models"
	"classifieds_backend/internal/services"
	"classifieds_backend/internal/testhelpers"
	"classifieds_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adIDs(views []dto.AdView) []string {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestCatalog_NeverListsInactiveAds(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)
	active := testhelpers.CreateAd(t, f.db, user, nil)
	inactive := testhelpers.CreateAd(t, f.db, user, func(a *models.Ad) { a.IsActive = false })

	resp, err := f.svc.CatalogService.ListAds(f.db, &dto.AdListQuery{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.TotalAds)
	assert.Equal(t, []string{active.ID}, adIDs(resp.Ads))

	// по прямой ссылке неактивное объявление доступно
	view, err := f.svc.CatalogService.GetAdByID(f.db, inactive.ID)
	require.NoError(t, err)
	assert.False(t, view.IsActive)

	mine, err := f.svc.CatalogService.ListMyAds(f.db, user.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.TotalAds, "в своих объявлениях видны и неактивные")
}

func TestCatalog_PromotedAlwaysFirst(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)

	cheapNew := testhelpers.CreateAd(t, f.db, user, func(a *models.Ad) {
		a.Price = "10"
		a.CreatedAt = testNow.Add(-time.Hour)
	})
	promotedOld := testhelpers.CreateAd(t, f.db, user, func(a *models.Ad) {
		a.Price = "900"
		a.CreatedAt = testNow.Add(-72 * time.Hour)
	})
	testhelpers.Promote(t, f.db, promotedOld, models.Plan7Days, testNow.Add(24*time.Hour))
	unpriced := testhelpers.CreateAd(t, f.db, user, func(a *models.Ad) {
		a.Price = "negotiable"
		a.CreatedAt = testNow.Add(-2 * time.Hour)
	})

	resp, err := f.svc.CatalogService.ListAds(f.db, &dto.AdListQuery{PriceSort: "asc"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{promotedOld.ID, cheapNew.ID, unpriced.ID}, adIDs(resp.Ads),
		"продвигаемые первыми, нечисловые цены в конце")

	resp, err = f.svc.CatalogService.ListAds(f.db, &dto.AdListQuery{DateSort: "oldest"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{promotedOld.ID, unpriced.ID, cheapNew.ID}, adIDs(resp.Ads))
}

func TestCatalog_Filters(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)

	car := testhelpers.CreateAd(t, f.db, user, func(a *models.Ad) {
		a.Category = "Cars for Sale"
		a.FuelType = "Diesel"
		a.TitleEn = "Toyota Land Cruiser"
		a.City = "Astana"
		a.CreatedAt = testNow.Add(-2 * time.Hour)
	})
	flat := testhelpers.CreateAd(t, f.db, user, func(a *models.Ad) {
		a.Category = "Apartments for Rent"
		a.TitleEn = "Flat 100% renovated"
		a.City = "Almaty"
		a.CreatedAt = testNow.Add(-10 * 24 * time.Hour)
	})

	cases := []struct {
		name  string
		query dto.AdListQuery
		want  []string
	}{
		{"категории через запятую", dto.AdListQuery{Category: []string{"sale,rent"}}, []string{car.ID, flat.ID}},
		{"топливо без учёта регистра", dto.AdListQuery{FuelType: []string{"diesel"}}, []string{car.ID}},
		{"поиск по заголовку", dto.AdListQuery{Search: "cruiser"}, []string{car.ID}},
		{"процент экранируется", dto.AdListQuery{Search: "100%"}, []string{flat.ID}},
		{"город", dto.AdListQuery{City: "almaty"}, []string{flat.ID}},
		{"за последние сутки", dto.AdListQuery{PostedWithin: models.PostedLastDay}, []string{car.ID}},
		{"за 30 дней", dto.AdListQuery{PostedWithin: models.PostedLast30Days}, []string{car.ID, flat.ID}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := tc.query
			resp, err := f.svc.CatalogService.ListAds(f.db, &q, 1, 10)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, adIDs(resp.Ads))
			assert.Equal(t, int64(len(tc.want)), resp.TotalAds)
		})
	}
}

func TestCatalog_InvalidSortRejected(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.CatalogService.ListAds(f.db, &dto.AdListQuery{PriceSort: "sideways"}, 1, 10)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestCatalog_Pagination(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)
	for i := 0; i < 5; i++ {
		testhelpers.CreateAd(t, f.db, user, func(a *models.Ad) {
			a.CreatedAt = testNow.Add(-time.Duration(i) * time.Hour)
		})
	}

	first, err := f.svc.CatalogService.ListAds(f.db, &dto.AdListQuery{}, 1, 2)
	require.NoError(t, err)
	second, err := f.svc.CatalogService.ListAds(f.db, &dto.AdListQuery{}, 2, 2)
	require.NoError(t, err)
	last, err := f.svc.CatalogService.ListAds(f.db, &dto.AdListQuery{}, 3, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(5), first.TotalAds)
	assert.Len(t, first.Ads, 2)
	assert.Len(t, second.Ads, 2)
	assert.Len(t, last.Ads, 1)
	assert.NotEqual(t, adIDs(first.Ads), adIDs(second.Ads))
}

func TestCatalog_HugePageIsEmptyNotFirst(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)
	for i := 0; i < 3; i++ {
		testhelpers.CreateAd(t, f.db, user, nil)
	}

	resp, err := f.svc.CatalogService.ListAds(f.db, &dto.AdListQuery{}, math.MaxInt, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.TotalAds)
	assert.Empty(t, resp.Ads, "страница за пределами выборки должна быть пустой")
}

func TestNormalizePagination(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		wantPage    int
		wantLimit   int
	}{
		{"значения по умолчанию", 0, 0, 1, 10},
		{"отрицательные", -3, -1, 1, 10},
		{"лимит прижимается", 2, 500, 2, 100},
		{"огромная страница", math.MaxInt, 10, math.MaxInt / 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := services.NormalizePagination(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
			assert.GreaterOrEqual(t, (page-1)*limit, 0)
		})
	}
}

func TestCatalog_HomeSections(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)

	for i := 0; i < 6; i++ {
		testhelpers.CreateAd(t, f.db, user, func(a *models.Ad) { a.Category = "Cars for Sale" })
	}
	rent := testhelpers.CreateAd(t, f.db, user, func(a *models.Ad) { a.Category = "House for Rent" })
	demand := testhelpers.CreateAd(t, f.db, user, func(a *models.Ad) { a.Category = "Demand" })
	testhelpers.Promote(t, f.db, demand, models.Plan7Days, testNow.Add(time.Hour))
	testhelpers.CreateAd(t, f.db, user, func(a *models.Ad) {
		a.Category = "House for Rent"
		a.IsActive = false
	})

	resp, err := f.svc.CatalogService.ListHomeAds(f.db, &dto.AdListQuery{})
	require.NoError(t, err)

	assert.Equal(t, int64(8), resp.TotalAds)
	assert.Len(t, resp.SaleAds, 4, "подборка ограничена четырьмя объявлениями")
	assert.Equal(t, []string{rent.ID}, adIDs(resp.RentAds))
	assert.Equal(t, []string{demand.ID}, adIDs(resp.DemandAds))
	assert.Equal(t, []string{demand.ID}, adIDs(resp.PromotedAds))
}

func TestCatalog_GetAdByID(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, func(u *models.User) { u.Name = "Aigerim" })
	ad := testhelpers.CreateAd(t, f.db, user, nil)

	view, err := f.svc.CatalogService.GetAdByID(f.db, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aigerim", view.OwnerName)
	assert.Nil(t, view.User, "пользователь целиком в ответ не попадает")

	f.svc.CatalogService.RecordView(f.db, ad.ID)
	assert.Equal(t, int64(1), testhelpers.Reload[models.Ad](t, f.db, ad.ID).Views)

	_, err = f.svc.CatalogService.GetAdByID(f.db, "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrAdNotFound)
}

package dto

import (
	"strings"

	"classifieds_backend/internal/models"
)

// AdListQuery - query-параметры публичного каталога.
// Мультизначения принимаются и повтором параметра, и через запятую.
type AdListQuery struct {
	Category     []string `form:"category" json:"category"`
	Condition    []string `form:"condition" json:"condition"`
	FuelType     []string `form:"fuelType" json:"fuelType"`
	Search       string   `form:"search" json:"search" validate:"max=200"`
	City         string   `form:"city" json:"city" validate:"max=120"`
	PostedWithin string   `form:"postedWithin" json:"postedWithin" validate:"omitempty,is-posted-within"`
	IsPromoted   *bool    `form:"isPromoted" json:"isPromoted"`
	PriceSort    string   `form:"priceSort" json:"priceSort" validate:"omitempty,oneof=asc desc"`
	DateSort     string   `form:"dateSort" json:"dateSort" validate:"omitempty,oneof=newest oldest"`
}

// AdminAdQuery - то же самое плюс фильтры, доступные только админу
type AdminAdQuery struct {
	AdListQuery
	UserID   string `form:"userId" json:"userId" validate:"omitempty,uuid"`
	IsActive *bool  `form:"isActive" json:"isActive"`
	IsSold   *bool  `form:"isSold" json:"isSold"`
}

// SplitMulti раскладывает "Sale,Rent" и повторяющиеся параметры в один список
func SplitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// CreateAdRequest приходит multipart-формой вместе с файлами "images"
type CreateAdRequest struct {
	Category    string `form:"category" json:"category" validate:"required,max=120"`
	Condition   string `form:"condition" json:"condition" validate:"max=60"`
	FuelType    string `form:"fuelType" json:"fuelType" validate:"max=60"`
	TitleEn     string `form:"titleEn" json:"titleEn" validate:"required,max=255"`
	TitleLocal  string `form:"titleLocal" json:"titleLocal" validate:"max=255"`
	Description string `form:"description" json:"description" validate:"max=5000"`
	Price       string `form:"price" json:"price" validate:"required,max=64"`
	Currency    string `form:"currency" json:"currency" validate:"max=8"`
	Year        int    `form:"year" json:"year" validate:"omitempty,min=1900,max=2100"`
	City        string `form:"city" json:"city" validate:"required,max=120"`
}

// UpdateAdRequest - nil означает "не менять". KeptImages - URL, которые
// клиент оставляет; всё остальное из старого списка удаляется из хранилища.
type UpdateAdRequest struct {
	Category    *string  `form:"category" json:"category" validate:"omitempty,max=120"`
	Condition   *string  `form:"condition" json:"condition" validate:"omitempty,max=60"`
	FuelType    *string  `form:"fuelType" json:"fuelType" validate:"omitempty,max=60"`
	TitleEn     *string  `form:"titleEn" json:"titleEn" validate:"omitempty,min=1,max=255"`
	TitleLocal  *string  `form:"titleLocal" json:"titleLocal" validate:"omitempty,max=255"`
	Description *string  `form:"description" json:"description" validate:"omitempty,max=5000"`
	Price       *string  `form:"price" json:"price" validate:"omitempty,max=64"`
	Currency    *string  `form:"currency" json:"currency" validate:"omitempty,max=8"`
	Year        *int     `form:"year" json:"year" validate:"omitempty,min=1900,max=2100"`
	City        *string  `form:"city" json:"city" validate:"omitempty,max=120"`
	KeptImages  []string `form:"keptImages" json:"keptImages"`
}

type ReportAdRequest struct {
	Reason  string `json:"reason" validate:"required,max=120"`
	Message string `json:"message" validate:"max=2000"`
}

type DeleteAdsRequest struct {
	AdIDs []string `json:"adIds" validate:"required,min=1,max=100,dive,required"`
}

// AdView - объявление плюс публичные поля владельца.
// Сам пользователь в ответ не попадает.
type AdView struct {
	models.Ad
	OwnerName           string `json:"ownerName"`
	OwnerCity           string `json:"ownerCity"`
	OwnerIsVerified     bool   `json:"ownerIsVerified"`
	OwnerIsPremium      bool   `json:"ownerIsPremium"`
	OwnerProfilePicture string `json:"ownerProfilePicture"`
}

func NewAdView(ad models.Ad) AdView {
	view := AdView{Ad: ad}
	if ad.User != nil {
		view.OwnerName = ad.User.Name
		view.OwnerCity = ad.User.City
		view.OwnerIsVerified = ad.User.IsVerified
		view.OwnerIsPremium = ad.User.IsPremiumUser
		view.OwnerProfilePicture = ad.User.ProfilePicture
	}
	view.Ad.User = nil
	return view
}

func NewAdViews(ads []models.Ad) []AdView {
	views := make([]AdView, 0, len(ads))
	for _, ad := range ads {
		views = append(views, NewAdView(ad))
	}
	return views
}

type AdListResponse struct {
	TotalAds int64    `json:"totalAds"`
	Ads      []AdView `json:"ads"`
	Page     int      `json:"page"`
	Limit    int      `json:"limit"`
}

type HomeAdsResponse struct {
	TotalAds    int64    `json:"totalAds"`
	PromotedAds []AdView `json:"promotedAds"`
	SaleAds     []AdView `json:"saleAds"`
	RentAds     []AdView `json:"rentAds"`
	DemandAds   []AdView `json:"demandAds"`
}

type ReportListResponse struct {
	Total   int64           `json:"total"`
	Reports []models.Report `json:"reports"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
}

type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

package repositories

import (
	"fmt"
	"strings"
	"time"

	"classifieds_backend/internal/models"

	"gorm.io/gorm"
)

// AdFilter - все фильтры каталога. Любое поле может быть пустым.
// Между полями - AND, внутри мультизначного поля - OR по подстроке без учёта регистра.
type AdFilter struct {
	Categories   []string
	Conditions   []string
	FuelTypes    []string
	Search       string // подстрока title_en
	City         string
	PostedWithin string
	IsPromoted   *bool
	PriceSort    string // asc | desc
	DateSort     string // newest | oldest

	// Только для админки и "моих объявлений"
	OwnerID         string
	IncludeInactive bool
	IsActive        *bool
	IsSold          *bool
}

// AdQuery - описание запроса: список предикатов и список ключей сортировки.
// Строится один раз и переводится в gorm-цепочку через Apply/ApplyFilters.
type AdQuery struct {
	predicates []predicate
	order      []string
}

type predicate struct {
	sql  string
	args []interface{}
}

func NewAdQuery() *AdQuery {
	return &AdQuery{}
}

func (q *AdQuery) Where(sql string, args ...interface{}) *AdQuery {
	q.predicates = append(q.predicates, predicate{sql: sql, args: args})
	return q
}

func (q *AdQuery) OrderBy(expr string) *AdQuery {
	q.order = append(q.order, expr)
	return q
}

// Clone - независимая копия, чтобы навешивать подзапросы (витрина главной)
func (q *AdQuery) Clone() *AdQuery {
	cp := &AdQuery{
		predicates: make([]predicate, len(q.predicates)),
		order:      make([]string, len(q.order)),
	}
	copy(cp.predicates, q.predicates)
	copy(cp.order, q.order)
	return cp
}

// WithCategoryLike - копия с дополнительным условием на категорию
func (q *AdQuery) WithCategoryLike(term string) *AdQuery {
	cp := q.Clone()
	sql, args := anyLike("category", []string{term})
	return cp.Where(sql, args...)
}

func (q *AdQuery) WithPromoted() *AdQuery {
	return q.Clone().Where("is_promoted = ?", true)
}

func (q *AdQuery) Predicates() int {
	return len(q.predicates)
}

func (q *AdQuery) Order() []string {
	out := make([]string, len(q.order))
	copy(out, q.order)
	return out
}

// ApplyFilters - только WHERE, для COUNT
func (q *AdQuery) ApplyFilters(db *gorm.DB) *gorm.DB {
	for _, p := range q.predicates {
		db = db.Where(p.sql, p.args...)
	}
	return db
}

// Apply - WHERE + ORDER BY
func (q *AdQuery) Apply(db *gorm.DB) *gorm.DB {
	db = q.ApplyFilters(db)
	for _, o := range q.order {
		db = db.Order(o)
	}
	return db
}

// BuildAdQuery переводит фильтр в AdQuery.
// Сортировка: продвигаемые всегда первыми, затем цена (если задана,
// нечисловые цены в конце при любом направлении), затем дата, затем id.
func BuildAdQuery(f AdFilter, now time.Time) (*AdQuery, error) {
	q := NewAdQuery()

	switch {
	case f.IsActive != nil:
		q.Where("is_active = ?", *f.IsActive)
	case !f.IncludeInactive:
		q.Where("is_active = ?", true)
	}

	if f.OwnerID != "" {
		q.Where("user_id = ?", f.OwnerID)
	}
	if f.IsSold != nil {
		q.Where("is_sold = ?", *f.IsSold)
	}

	for _, field := range []struct {
		column string
		values []string
	}{
		{"category", f.Categories},
		{"condition", f.Conditions},
		{"fuel_type", f.FuelTypes},
		{"title_en", []string{f.Search}},
		{"city", []string{f.City}},
	} {
		if sql, args := anyLike(field.column, field.values); sql != "" {
			q.Where(sql, args...)
		}
	}

	from, to, err := PostedWindow(f.PostedWithin, now)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() {
		q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q.Where("created_at < ?", to)
	}

	if f.IsPromoted != nil {
		q.Where("is_promoted = ?", *f.IsPromoted)
	}

	q.OrderBy("is_promoted DESC")

	switch f.PriceSort {
	case "":
	case "asc":
		q.OrderBy("price_value IS NULL").OrderBy("price_value ASC")
	case "desc":
		q.OrderBy("price_value IS NULL").OrderBy("price_value DESC")
	default:
		return nil, fmt.Errorf("%w: price sort %q", ErrInvalidFilter, f.PriceSort)
	}

	switch f.DateSort {
	case "", "newest":
		q.OrderBy("created_at DESC")
	case "oldest":
		q.OrderBy("created_at ASC")
	default:
		return nil, fmt.Errorf("%w: date sort %q", ErrInvalidFilter, f.DateSort)
	}

	q.OrderBy("id ASC")
	return q, nil
}

// PostedWindow возвращает [from, to) для корзины "дата публикации".
// Нулевое значение границы - граница не задана.
// "Last month" и "Last year" - предыдущий календарный месяц/год.
func PostedWindow(bucket string, now time.Time) (from, to time.Time, err error) {
	switch bucket {
	case "", models.PostedAll:
		return time.Time{}, time.Time{}, nil
	case models.PostedLastDay:
		return now.Add(-24 * time.Hour), time.Time{}, nil
	case models.PostedLast30Days:
		return now.Add(-30 * 24 * time.Hour), time.Time{}, nil
	case models.PostedLastMonth:
		thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return thisMonth.AddDate(0, -1, 0), thisMonth, nil
	case models.PostedLastYear:
		thisYear := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return thisYear.AddDate(-1, 0, 0), thisYear, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: posted within %q", ErrInvalidFilter, bucket)
	}
}

// anyLike собирает "(LOWER(col) LIKE ? OR ...)" по непустым значениям
func anyLike(column string, values []string) (string, []interface{}) {
	var parts []string
	var args []interface{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, column))
		args = append(args, "%"+escapeLike(strings.ToLower(v))+"%")
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

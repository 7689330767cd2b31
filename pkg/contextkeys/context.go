package contextkeys

// Отдельный тип, чтобы ключи не пересекались с чужими значениями в context
type contextKey string

// DBContextKey - *gorm.DB (пул или транзакция) запроса
const DBContextKey = contextKey("db")

// Ключи gin.Context, которые выставляет auth middleware
const (
	UserIDKey   = "userID"
	RoleKey     = "role"
	IdentityKey = "identity"
)

package repo

// UserContextStore хранит email последнего вошедшего пользователя.
type UserContextStore interface {
	SaveEmail(email string) error
	LoadEmail() (string, error)
}

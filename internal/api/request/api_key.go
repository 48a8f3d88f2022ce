package request

type CreateAPIKey struct {
	Name string `json:"name" validate:"required,max=255"`
}

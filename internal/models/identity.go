package models

type Role string // Роль пользователя

const (
	PatientRole Role = "patient"
	ClinicRole  Role = "clinic"
)

// Identity - пользователь, определенный один раз при аутентификации запроса.
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

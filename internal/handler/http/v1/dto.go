package v1

// SubmitIncidentRequest DTO для анонимной подачи отчета об инциденте
// @Description DTO для анонимной подачи отчета об инциденте
type SubmitIncidentRequest struct {
	ReporterName     string `json:"reporter_name"`
	IncidentDatetime string `json:"incident_datetime" validate:"required"`
	Location         string `json:"location" validate:"required"`
	PersonsInvolved  string `json:"persons_involved" validate:"required"`
	Description      string `json:"description" validate:"required"`
}

// SubmitIncidentResponse DTO подтверждения приема отчета.
// Идентификатор и содержимое отчета анонимному отправителю не возвращаются.
type SubmitIncidentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginRequest DTO для входа администратора
// @Description DTO для входа администратора
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID               int64  `json:"id"`
	ReporterName     string `json:"reporter_name"`
	IncidentDatetime string `json:"incident_datetime"`
	Location         string `json:"location"`
	PersonsInvolved  string `json:"persons_involved"`
	Description      string `json:"description"`
	SubmittedAt      string `json:"submitted_at"`
}

// ListIncidentsResponse DTO страницы инцидентов с метаданными для пагинации
// @Description DTO страницы инцидентов с метаданными для пагинации
type ListIncidentsResponse struct {
	Incidents []*IncidentResponse `json:"incidents"`
	Total     int                 `json:"total"`
	Page      int                 `json:"page"`
	PageSize  int                 `json:"page_size"`
}

// CreateAccountRequest DTO для создания учетной записи администратора
// @Description DTO для создания учетной записи администратора
type CreateAccountRequest struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Password string `json:"password" validate:"required,min=6"`
}

// ResetPasswordRequest DTO для сброса пароля учетной записи
// @Description DTO для сброса пароля учетной записи
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// AccountResponse DTO учетной записи администратора (без хеша пароля)
// @Description DTO учетной записи администратора
type AccountResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
	IsActive  bool   `json:"is_active"`
}

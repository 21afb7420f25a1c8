package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"hcm/internal/domain/model"
	repo "hcm/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 認証済み呼び出し元（JWTクレーム由来）
type Actor struct {
	PersonID   string
	Role       model.Role
	Department string
}

type PersonUsecase struct {
	persons repo.PersonRepository
	hasher  PasswordHasher
	idGen   IDGenerator
}

// DI
func NewPersonUsecase(
	persons repo.PersonRepository,
	hasher PasswordHasher,
	idGen IDGenerator,
) *PersonUsecase {
	return &PersonUsecase{
		persons: persons,
		hasher:  hasher,
		idGen:   idGen,
	}
}

type CreatePersonInput struct {
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	JobTitle   string  `json:"jobTitle"`
	Salary     float64 `json:"salary"`
	Department string  `json:"department"`
	Role       string  `json:"role"`
	Password   string  `json:"password"`
}

// CreatePersonはHrAdminによる登録。roleは任意に指定できる（閉じた集合のみ）。
func (u *PersonUsecase) CreatePerson(ctx context.Context, in CreatePersonInput) (PersonDTO, error) {
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.JobTitle == "" {
		return PersonDTO{}, NewHTTPError(http.StatusBadRequest, "missing required fields")
	}
	if in.Salary < 0 {
		return PersonDTO{}, NewHTTPError(http.StatusBadRequest, "salary must be >= 0")
	}
	if in.Password == "" {
		return PersonDTO{}, NewHTTPError(http.StatusBadRequest, "password is required")
	}

	role := model.Role(in.Role)
	if !role.IsValid() {
		return PersonDTO{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	existing, err := u.persons.FindByEmail(ctx, in.Email)
	if err != nil {
		return PersonDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing != nil {
		return PersonDTO{}, NewHTTPError(http.StatusConflict, "email already taken")
	}

	pwHash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return PersonDTO{}, NewHTTPError(http.StatusInternalServerError, "hash error")
	}

	person := &model.Person{
		ID:           u.idGen.NewID(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		JobTitle:     in.JobTitle,
		Salary:       in.Salary,
		Department:   in.Department,
		Role:         role,
		PasswordHash: pwHash,
	}

	if err := u.persons.Create(ctx, person); err != nil {
		return PersonDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toPersonDTO(person), nil
}

type ListPersonsInput struct {
	Page     int
	PageSize int
}

type PersonListOutput struct {
	Persons    []PersonDTO `json:"persons"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalCount int64       `json:"totalCount"`
}

// ListPersonsはページング取得。Managerは自部署のみ見える。
func (u *PersonUsecase) ListPersons(ctx context.Context, actor Actor, in ListPersonsInput) (PersonListOutput, error) {
	if in.Page < 1 {
		return PersonListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.PageSize < 1 || in.PageSize > 100 {
		return PersonListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid pageSize")
	}

	q := repo.PersonListQuery{
		Page:     in.Page,
		PageSize: in.PageSize,
	}
	if actor.Role == model.RoleManager {
		q.Department = actor.Department
	}

	persons, total, err := u.persons.List(ctx, q)
	if err != nil {
		return PersonListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	dtos := make([]PersonDTO, 0, len(persons))
	for i := range persons {
		dtos = append(dtos, toPersonDTO(&persons[i]))
	}

	return PersonListOutput{
		Persons:    dtos,
		Page:       in.Page,
		PageSize:   in.PageSize,
		TotalCount: total,
	}, nil
}

// GetPersonは閲覧ポリシー付きの1件取得。
// HrAdminは全員、Managerは自部署、本人は自分を見られる。
func (u *PersonUsecase) GetPerson(ctx context.Context, actor Actor, personID string) (PersonDTO, error) {
	person, err := u.persons.FindByID(ctx, personID)
	if err != nil {
		return PersonDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if person == nil {
		return PersonDTO{}, NewHTTPError(http.StatusNotFound, "person not found")
	}

	if !canViewPerson(actor, person) {
		return PersonDTO{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	return toPersonDTO(person), nil
}

type UpdatePersonInput struct {
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	JobTitle   string  `json:"jobTitle"`
	Salary     float64 `json:"salary"`
	Department string  `json:"department"`
	Role       string  `json:"role"`
}

// UpdatePersonは編集ポリシー付きの更新。
// Managerは自部署のみ、roleの変更はHrAdminだけ。
func (u *PersonUsecase) UpdatePerson(ctx context.Context, actor Actor, personID string, in UpdatePersonInput) (PersonDTO, error) {
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.JobTitle == "" {
		return PersonDTO{}, NewHTTPError(http.StatusBadRequest, "missing required fields")
	}
	if in.Salary < 0 {
		return PersonDTO{}, NewHTTPError(http.StatusBadRequest, "salary must be >= 0")
	}

	role := model.Role(in.Role)
	if !role.IsValid() {
		return PersonDTO{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	person, err := u.persons.FindByID(ctx, personID)
	if err != nil {
		return PersonDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if person == nil {
		return PersonDTO{}, NewHTTPError(http.StatusNotFound, "person not found")
	}

	if !canEditPerson(actor, person) {
		return PersonDTO{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	if role != person.Role && actor.Role != model.RoleHrAdmin {
		return PersonDTO{}, NewHTTPError(http.StatusForbidden, "only HrAdmin can change roles")
	}

	person.FirstName = in.FirstName
	person.LastName = in.LastName
	person.Email = in.Email
	person.JobTitle = in.JobTitle
	person.Salary = in.Salary
	person.Department = in.Department
	person.Role = role

	if err := u.persons.Update(ctx, person); err != nil {
		return PersonDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toPersonDTO(person), nil
}

// DeletePersonはHrAdmin専用（routeのguardで担保）。
func (u *PersonUsecase) DeletePerson(ctx context.Context, personID string) error {
	err := u.persons.Delete(ctx, personID)
	if err != nil {
		if errors.Is(err, repo.ErrPersonNotFound) {
			return NewHTTPError(http.StatusNotFound, "person not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func canViewPerson(actor Actor, p *model.Person) bool {
	if actor.Role == model.RoleHrAdmin {
		return true
	}
	if actor.PersonID == p.ID {
		return true
	}
	if actor.Role == model.RoleManager && actor.Department == p.Department {
		return true
	}
	return false
}

func canEditPerson(actor Actor, p *model.Person) bool {
	if actor.Role == model.RoleHrAdmin {
		return true
	}
	if actor.Role == model.RoleManager && actor.Department == p.Department {
		return true
	}
	return false
}

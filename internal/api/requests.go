package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-translations/translations"
)

const maxBodyBytes = 1 << 20

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type createRequest struct {
	Key      string   `json:"key"`
	LocaleID string   `json:"locale_id"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
}

func (r createRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Key, validation.Required, validation.RuneLength(1, translations.MaxKeyLength)),
		validation.Field(&r.LocaleID, validation.Required, is.UUID),
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.Tags, validation.By(validTagList)),
	)
}

func (r createRequest) input() translations.CreateInput {
	return translations.CreateInput{
		Key:      r.Key,
		LocaleID: uuid.MustParse(r.LocaleID),
		Content:  r.Content,
		Tags:     parseIDs(r.Tags),
	}
}

type updateRequest struct {
	Key     *string   `json:"key"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

func (r updateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Key, validation.NilOrNotEmpty, validation.RuneLength(1, translations.MaxKeyLength)),
		validation.Field(&r.Content, validation.NilOrNotEmpty),
		validation.Field(&r.Tags, validation.By(validTagList)),
	)
}

func (r updateRequest) input() translations.UpdateInput {
	in := translations.UpdateInput{Key: r.Key, Content: r.Content}
	if r.Tags != nil {
		tags := parseIDs(*r.Tags)
		in.Tags = &tags
	}
	return in
}

func validTagList(value any) error {
	var tags []string
	switch v := value.(type) {
	case []string:
		tags = v
	case *[]string:
		if v != nil {
			tags = *v
		}
	}
	for _, tag := range tags {
		if _, err := uuid.Parse(tag); err != nil {
			return errors.New("must contain valid tag ids")
		}
	}
	return nil
}

func parseIDs(values []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		ids = append(ids, uuid.MustParse(value))
	}
	return ids
}

type searchRequest struct {
	Key     string
	Content string
	Locale  string
	Tag     string
	Page    string
	PerPage string
}

func newSearchRequest(query url.Values) searchRequest {
	return searchRequest{
		Key:     query.Get("key"),
		Content: query.Get("content"),
		Locale:  query.Get("locale"),
		Tag:     query.Get("tag"),
		Page:    query.Get("page"),
		PerPage: query.Get("per_page"),
	}
}

func (r searchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Page, is.Int),
		validation.Field(&r.PerPage, is.Int),
	)
}

func (r searchRequest) filters() translations.SearchFilters {
	page, _ := strconv.Atoi(r.Page)
	perPage, _ := strconv.Atoi(r.PerPage)
	return translations.SearchFilters{
		Key:     r.Key,
		Content: r.Content,
		Locale:  r.Locale,
		Tag:     r.Tag,
		Page:    page,
		PerPage: perPage,
	}.Normalize()
}

type exportRequest struct {
	Locale string
}

func (r exportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Locale, validation.Required, validation.RuneLength(1, 16)),
	)
}

// decodeJSON reads the body into dst. Malformed JSON is reported as a
// validation error on the body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return goerrors.NewValidation(msgInvalidData, goerrors.FieldError{
			Field:   "body",
			Message: "must be a valid JSON object",
		})
	}
	return nil
}

// validate runs an ozzo validatable and converts failures into a
// go-errors validation error.
func validate(v validation.Validatable) error {
	if err := goerrors.ValidateWithOzzo(v.Validate, msgInvalidData); err != nil {
		return err
	}
	return nil
}

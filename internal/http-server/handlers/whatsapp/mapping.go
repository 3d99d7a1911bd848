package whatsapp

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/api/request"
	"CaseLink/internal/lib/api/response"
	"CaseLink/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

type MapPhoneRequest struct {
	Phone  string `json:"phone" validate:"required"`
	CaseID string `json:"case_id" validate:"required"`
}

func (m *MapPhoneRequest) Bind(_ *http.Request) error {
	return request.Validate(m)
}

func MapPhone(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MapPhoneRequest
		if err := request.Decode(r, &req); err != nil {
			response.RenderFail(w, r, err)
			return
		}

		mapping, err := handler.MapPhoneToCase(r.Context(), req.Phone, req.CaseID)
		if err != nil {
			log.With(
				sl.Module("http.handlers.whatsapp"),
				slog.String("case_id", req.CaseID),
			).Warn("failed to map phone", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(mapping))
	}
}

func Mappings(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := handler.ListPhoneMappings(r.Context())
		if err != nil {
			log.With(sl.Module("http.handlers.whatsapp")).Error("list mappings", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}
		if list == nil {
			list = []entity.PhoneCaseMapping{}
		}

		render.JSON(w, r, response.Ok(list))
	}
}

package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// NoticeStep is one step of the usage notice.
type NoticeStep struct {
	Title       string `json:"title"`
	Endpoint    string `json:"endpoint,omitempty"`
	Description string `json:"description"`
}

// Notice is the usage notice served by GET /api/notice.
type Notice struct {
	Title string       `json:"title"`
	Intro string       `json:"intro"`
	Steps []NoticeStep `json:"steps"`
}

var usageNotice = Notice{
	Title: "Notice d'utilisation",
	Intro: "Bienvenue dans l'outil de traitement des données.",
	Steps: []NoticeStep{
		{
			Title:    "Processus ETL",
			Endpoint: "POST " + etlPath,
			Description: "Envoyez les fichiers \"Powerapp Dictionnaire des données BU Colissimo\" et " +
				"\"Source Dictionnaire des données BU Colissimo\". Le fichier Powerapp doit contenir la feuille \"Table DATA\". " +
				"Le résultat est le fichier " + etlFileName + ".",
		},
		{
			Title:    "Données similaires",
			Endpoint: "POST " + similarPath,
			Description: "Après le processus ETL, remplissez la description des nouvelles données puis envoyez le fichier " +
				"transformé pour ajouter la colonne \"données similaires\".",
		},
		{
			Title:       "Fin",
			Description: "Téléchargez le fichier enrichi et déposez-le dans le dossier PowerApp du catalogue.",
		},
	},
}

// NoticeHandler serves the usage notice.
type NoticeHandler struct {
	logger *zap.Logger
}

func NewNoticeHandler(logger *zap.Logger) *NoticeHandler {
	return &NoticeHandler{logger: logger}
}

// RegisterRoutes registers the notice handler's routes on the given mux.
func (h *NoticeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/notice", h.Get)
}

// Get handles GET /api/notice
func (h *NoticeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: usageNotice}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

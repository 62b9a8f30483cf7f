package httpapi

import "github.com/openword/roundserver/internal/roomstate"

type createRoomRequest struct {
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants"`
}

type createRoomResponse struct {
	RoomCode        string `json:"roomCode"`
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants"`
	WSPath          string `json:"wsPath"`
	HostToken       string `json:"hostToken"`
}

type joinRequest struct {
	Name string `json:"name"`
}

type joinResponse struct {
	RequestID   string                     `json:"requestId"`
	Participant roomstate.ParticipantView  `json:"participant"`
	Status      roomstate.ParticipantStatus `json:"status"`
}

type admissionRequest struct {
	HostToken string `json:"hostToken"`
	RequestID string `json:"requestId"`
	Approve   bool   `json:"approve"`
}

type startGameRequest struct {
	HostToken string             `json:"hostToken"`
	Config    *roomstate.GameConfig `json:"config"`
}

type callRequest struct {
	ParticipantID string `json:"participantId"`
	Number        int    `json:"number"`
}

type draftRequest struct {
	ParticipantID string             `json:"participantId"`
	Answers       roomstate.FieldSet `json:"answers"`
}

type submitRequest struct {
	ParticipantID string             `json:"participantId"`
	Answers       roomstate.FieldSet `json:"answers"`
}

type endRoundRequest struct {
	ParticipantID string `json:"participantId"`
}

type scoreRequest struct {
	HostToken     string              `json:"hostToken"`
	RoundNumber   int                 `json:"roundNumber"`
	ParticipantID string              `json:"participantId"`
	Marks         roomstate.FieldMarks `json:"marks"`
}

type roundRequest struct {
	HostToken   string `json:"hostToken"`
	RoundNumber int    `json:"roundNumber"`
}

type hostOnlyRequest struct {
	HostToken string `json:"hostToken"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

package roomstate

import (
	"sort"
	"time"

	"github.com/openword/roundserver/internal/clock"
)

// Snapshot is the canonical client-facing view of a room, per spec.md §4.4.
// hostToken and drafts never appear here.
type Snapshot struct {
	Meta         SnapshotMeta      `json:"meta"`
	Participants []ParticipantView `json:"participants"`
	Counts       Counts            `json:"counts"`
	Game         GameView          `json:"game"`
}

type SnapshotMeta struct {
	RoomCode        string `json:"roomCode"`
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants"`
}

type ParticipantView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Status    ParticipantStatus `json:"status"`
	IsHost    bool              `json:"isHost"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
}

type Counts struct {
	Admitted int `json:"admitted"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

type SubmissionSummaryView struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	SubmittedAt     string `json:"submittedAt"`
}

type ActiveRoundView struct {
	RoundNumber         int                     `json:"roundNumber"`
	TurnParticipantID   string                  `json:"turnParticipantId"`
	TurnParticipantName string                  `json:"turnParticipantName"`
	CalledNumber        int                     `json:"calledNumber"`
	ActiveLetter        string                  `json:"activeLetter"`
	StartedAt           string                  `json:"startedAt"`
	CountdownEndsAt     string                  `json:"countdownEndsAt"`
	EndsAt              *string                 `json:"endsAt"`
	Submissions         []SubmissionSummaryView `json:"submissions"`
}

type ReviewView struct {
	Marks        FieldMarks  `json:"marks"`
	Scores       FieldScores `json:"scores"`
	MarkedByID   string      `json:"markedById"`
	MarkedByName string      `json:"markedByName"`
	MarkedAt     string      `json:"markedAt"`
}

type SubmissionView struct {
	ParticipantID   string      `json:"participantId"`
	ParticipantName string      `json:"participantName"`
	Answers         FieldSet    `json:"answers"`
	SubmittedAt     string      `json:"submittedAt"`
	Review          *ReviewView `json:"review"`
}

type CompletedRoundView struct {
	RoundNumber         int              `json:"roundNumber"`
	TurnParticipantID   string           `json:"turnParticipantId"`
	TurnParticipantName string           `json:"turnParticipantName"`
	CalledNumber        int              `json:"calledNumber"`
	ActiveLetter        string           `json:"activeLetter"`
	StartedAt           string           `json:"startedAt"`
	CountdownEndsAt     string           `json:"countdownEndsAt"`
	EndsAt              *string          `json:"endsAt"`
	Submissions         []SubmissionView `json:"submissions"`
	EndedAt             string           `json:"endedAt"`
	EndReason           EndReason        `json:"endReason"`
	ScorePublishedAt    *string          `json:"scorePublishedAt"`
}

type LeaderboardHistoryEntry struct {
	RoundNumber     int     `json:"roundNumber"`
	CalledNumber    int     `json:"calledNumber"`
	ActiveLetter    string  `json:"activeLetter"`
	Score           float64 `json:"score"`
	CumulativeScore float64 `json:"cumulativeScore"`
	Reviewed        bool    `json:"reviewed"`
}

type LeaderboardEntry struct {
	ParticipantID   string                    `json:"participantId"`
	ParticipantName string                    `json:"participantName"`
	TotalScore      float64                   `json:"totalScore"`
	History         []LeaderboardHistoryEntry `json:"history"`
}

type ScoringSummary struct {
	RoundsPerPlayer          int                 `json:"roundsPerPlayer"`
	MaxRounds                int                 `json:"maxRounds"`
	RoundsPlayed             int                 `json:"roundsPlayed"`
	PublishedRounds          int                 `json:"publishedRounds"`
	PendingPublicationRounds []int               `json:"pendingPublicationRounds"`
	UsedNumbers              []int               `json:"usedNumbers"`
	AvailableNumbers         []int               `json:"availableNumbers"`
	IsComplete               bool                `json:"isComplete"`
	Leaderboard              []LeaderboardEntry  `json:"leaderboard"`
}

type GameView struct {
	Status                   GameStatus           `json:"status"`
	StartedAt                *string              `json:"startedAt"`
	CancelledAt              *string              `json:"cancelledAt"`
	FinishedAt               *string              `json:"finishedAt"`
	Config                   GameConfig           `json:"config"`
	TurnOrder                []string             `json:"turnOrder"`
	CurrentTurnIndex         int                  `json:"currentTurnIndex"`
	CurrentTurnParticipantID *string              `json:"currentTurnParticipantId"`
	ActiveRound              *ActiveRoundView     `json:"activeRound"`
	CompletedRounds          []CompletedRoundView `json:"completedRounds"`
	Scoring                  ScoringSummary       `json:"scoring"`
}

// Project derives the client-visible Snapshot from internal Room state,
// per spec.md §4.4. It never includes r.HostToken or any draft answer.
func Project(r Room) Snapshot {
	snap := Snapshot{
		Meta: SnapshotMeta{
			RoomCode:        r.Code,
			HostName:        r.HostName,
			MaxParticipants: r.MaxParticipants,
		},
	}

	for _, p := range r.Participants {
		snap.Participants = append(snap.Participants, ParticipantView{
			ID:        p.ID,
			Name:      p.Name,
			Status:    p.Status,
			IsHost:    p.IsHost,
			CreatedAt: clock.ISO8601(p.CreatedAt),
			UpdatedAt: clock.ISO8601(p.UpdatedAt),
		})
		switch p.Status {
		case StatusAdmitted:
			snap.Counts.Admitted++
		case StatusPending:
			snap.Counts.Pending++
		case StatusRejected:
			snap.Counts.Rejected++
		}
	}
	if snap.Participants == nil {
		snap.Participants = []ParticipantView{}
	}

	g := r.Game
	view := GameView{
		Status:           g.Status,
		Config:           g.Config,
		TurnOrder:        append([]string(nil), g.TurnOrder...),
		CurrentTurnIndex: g.CurrentTurnIndex,
	}
	if view.TurnOrder == nil {
		view.TurnOrder = []string{}
	}
	view.StartedAt = isoPtrOf(g.StartedAt)
	view.CancelledAt = isoPtrOf(g.CancelledAt)
	view.FinishedAt = isoPtrOf(g.FinishedAt)
	if id, ok := r.currentTurnParticipantID(); ok {
		v := id
		view.CurrentTurnParticipantID = &v
	}

	if g.ActiveRound != nil {
		ar := g.ActiveRound
		arView := &ActiveRoundView{
			RoundNumber:         ar.RoundNumber,
			TurnParticipantID:   ar.TurnParticipantID,
			TurnParticipantName: ar.TurnParticipantName,
			CalledNumber:        ar.CalledNumber,
			ActiveLetter:        ar.ActiveLetter,
			StartedAt:           clock.ISO8601(ar.StartedAt),
			CountdownEndsAt:     clock.ISO8601(ar.CountdownEndsAt),
			EndsAt:              isoPtrOf(ar.EndsAt),
		}
		for _, s := range ar.Submissions {
			arView.Submissions = append(arView.Submissions, SubmissionSummaryView{
				ParticipantID:   s.ParticipantID,
				ParticipantName: s.ParticipantName,
				SubmittedAt:     clock.ISO8601(s.SubmittedAt),
			})
		}
		if arView.Submissions == nil {
			arView.Submissions = []SubmissionSummaryView{}
		}
		view.ActiveRound = arView
	}

	usedNumbers := map[int]bool{}
	for _, cr := range g.CompletedRounds {
		view.CompletedRounds = append(view.CompletedRounds, ProjectCompletedRound(cr))
		usedNumbers[cr.CalledNumber] = true
	}
	if view.CompletedRounds == nil {
		view.CompletedRounds = []CompletedRoundView{}
	}
	if g.ActiveRound != nil {
		usedNumbers[g.ActiveRound.CalledNumber] = true
	}

	view.Scoring = projectScoring(r, usedNumbers)
	snap.Game = view
	return snap
}

// ProjectParticipant renders a single Participant the same way Project
// renders every entry of Snapshot.Participants; internal/roomactor uses it
// to fill Event.Participant's wire form without re-deriving a whole
// Snapshot.
func ProjectParticipant(p Participant) ParticipantView {
	return ParticipantView{
		ID:        p.ID,
		Name:      p.Name,
		Status:    p.Status,
		IsHost:    p.IsHost,
		CreatedAt: clock.ISO8601(p.CreatedAt),
		UpdatedAt: clock.ISO8601(p.UpdatedAt),
	}
}

func ProjectCompletedRound(cr CompletedRound) CompletedRoundView {
	view := CompletedRoundView{
		RoundNumber:         cr.RoundNumber,
		TurnParticipantID:   cr.TurnParticipantID,
		TurnParticipantName: cr.TurnParticipantName,
		CalledNumber:        cr.CalledNumber,
		ActiveLetter:        cr.ActiveLetter,
		StartedAt:           clock.ISO8601(cr.StartedAt),
		CountdownEndsAt:     clock.ISO8601(cr.CountdownEndsAt),
		EndsAt:              isoPtrOf(cr.EndsAt),
		EndedAt:             clock.ISO8601(cr.EndedAt),
		EndReason:           cr.EndReason,
		ScorePublishedAt:    isoPtrOf(cr.ScorePublishedAt),
	}
	for _, s := range cr.Submissions {
		sv := SubmissionView{
			ParticipantID:   s.ParticipantID,
			ParticipantName: s.ParticipantName,
			Answers:         s.Answers,
			SubmittedAt:     clock.ISO8601(s.SubmittedAt),
		}
		if s.Review != nil {
			sv.Review = &ReviewView{
				Marks:        s.Review.Marks,
				Scores:       s.Review.Scores,
				MarkedByID:   s.Review.MarkedByID,
				MarkedByName: s.Review.MarkedByName,
				MarkedAt:     clock.ISO8601(s.Review.MarkedAt),
			}
		}
		view.Submissions = append(view.Submissions, sv)
	}
	if view.Submissions == nil {
		view.Submissions = []SubmissionView{}
	}
	return view
}

func projectScoring(r Room, usedNumbers map[int]bool) ScoringSummary {
	n := len(r.Game.TurnOrder)
	if n == 0 {
		n = r.admittedCount()
	}
	roundsPerPlayer := 0
	if n > 0 {
		roundsPerPlayer = 26 / n
	}
	maxRounds := roundsPerPlayer * n

	summary := ScoringSummary{
		RoundsPerPlayer: roundsPerPlayer,
		MaxRounds:       maxRounds,
		RoundsPlayed:    len(r.Game.CompletedRounds),
	}

	for _, cr := range r.Game.CompletedRounds {
		if cr.ScorePublishedAt != nil {
			summary.PublishedRounds++
		} else {
			summary.PendingPublicationRounds = append(summary.PendingPublicationRounds, cr.RoundNumber)
		}
	}
	sort.Ints(summary.PendingPublicationRounds)
	if summary.PendingPublicationRounds == nil {
		summary.PendingPublicationRounds = []int{}
	}

	for num := range usedNumbers {
		summary.UsedNumbers = append(summary.UsedNumbers, num)
	}
	sort.Ints(summary.UsedNumbers)
	if summary.UsedNumbers == nil {
		summary.UsedNumbers = []int{}
	}
	for num := 1; num <= 26; num++ {
		if !usedNumbers[num] {
			summary.AvailableNumbers = append(summary.AvailableNumbers, num)
		}
	}
	if summary.AvailableNumbers == nil {
		summary.AvailableNumbers = []int{}
	}

	summary.IsComplete = maxRounds > 0 && summary.RoundsPlayed >= maxRounds
	summary.Leaderboard = buildLeaderboard(r)
	return summary
}

func buildLeaderboard(r Room) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(r.Participants))
	for _, p := range r.Participants {
		if p.Status != StatusAdmitted {
			continue
		}
		entry := LeaderboardEntry{ParticipantID: p.ID, ParticipantName: p.Name}
		cumulative := 0.0
		for _, cr := range r.Game.CompletedRounds {
			if cr.ScorePublishedAt == nil {
				continue
			}
			score := 0.0
			reviewed := false
			for _, s := range cr.Submissions {
				if s.ParticipantID != p.ID {
					continue
				}
				if s.Review != nil {
					score = s.Review.Scores.Total
					reviewed = true
				}
				break
			}
			cumulative = round2(cumulative + score)
			entry.History = append(entry.History, LeaderboardHistoryEntry{
				RoundNumber:     cr.RoundNumber,
				CalledNumber:    cr.CalledNumber,
				ActiveLetter:    cr.ActiveLetter,
				Score:           score,
				CumulativeScore: cumulative,
				Reviewed:        reviewed,
			})
		}
		if entry.History == nil {
			entry.History = []LeaderboardHistoryEntry{}
		}
		entry.TotalScore = cumulative
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].ParticipantName < entries[j].ParticipantName
	})
	return entries
}

func isoPtrOf(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := clock.ISO8601(*t)
	return &v
}

package roomstate

import "time"

const (
	minNameLength = 2
	maxNameLength = 24

	minMaxParticipants = 1
	maxMaxParticipants = 10

	minRoundSeconds = 5
	maxRoundSeconds = 120

	countdownDuration = 3 * time.Second
)

func validateName(raw string) (string, *Failure) {
	name := normalize(raw)
	r := []rune(name)
	if len(r) < minNameLength || len(r) > maxNameLength {
		return "", fail(BadRequest, "name must be between %d and %d characters", minNameLength, maxNameLength)
	}
	return name, nil
}

func validateMaxParticipants(n int) *Failure {
	if n < minMaxParticipants || n > maxMaxParticipants {
		return fail(BadRequest, "maxParticipants must be between %d and %d", minMaxParticipants, maxMaxParticipants)
	}
	return nil
}

func validateConfig(cfg GameConfig) *Failure {
	if cfg.RoundSeconds < minRoundSeconds || cfg.RoundSeconds > maxRoundSeconds {
		return fail(BadRequest, "roundSeconds must be between %d and %d", minRoundSeconds, maxRoundSeconds)
	}
	switch cfg.EndRule {
	case EndRuleTimer, EndRuleFirstSubmission, EndRuleWhicheverFirst:
	default:
		return fail(BadRequest, "invalid endRule %q", cfg.EndRule)
	}
	switch cfg.ManualEndPolicy {
	case ManualEndHostOrCaller, ManualEndCallerOnly, ManualEndCallerOrTimer, ManualEndNone:
	default:
		return fail(BadRequest, "invalid manualEndPolicy %q", cfg.ManualEndPolicy)
	}
	switch cfg.ScoringMode {
	case ScoringFixed10, ScoringShared10:
	default:
		return fail(BadRequest, "invalid scoringMode %q", cfg.ScoringMode)
	}
	if cfg.ManualEndPolicy == ManualEndCallerOrTimer && cfg.EndRule == EndRuleFirstSubmission {
		return fail(BadRequest, "manualEndPolicy=CALLER_OR_TIMER requires endRule != FIRST_SUBMISSION")
	}
	return nil
}

func checkHostAuth(r Room, hostToken string) *Failure {
	if hostToken == "" || hostToken != r.HostToken {
		return fail(Unauthorised, "invalid or missing host token")
	}
	return nil
}

func nameTaken(r Room, normalized string) bool {
	key := normalizeKey(normalized)
	for _, p := range r.Participants {
		if p.Status == StatusRejected {
			continue
		}
		if normalizeKey(p.Name) == key {
			return true
		}
	}
	return false
}

// NewRoom builds the initial LOBBY room state for createRoom. code and
// hostToken are generated outside this package (by internal/idgen) since
// transitions themselves perform no randomness, per spec.md §9.
func NewRoom(code, hostName string, maxParticipants int, hostToken string, now time.Time) (Room, *Failure) {
	name, ferr := validateName(hostName)
	if ferr != nil {
		return Room{}, ferr
	}
	if ferr := validateMaxParticipants(maxParticipants); ferr != nil {
		return Room{}, ferr
	}
	room := Room{
		Code:            code,
		HostName:        name,
		MaxParticipants: maxParticipants,
		HostToken:       hostToken,
		CreatedAt:       now,
		Participants: []Participant{
			{
				ID:        HostParticipantID,
				Name:      name,
				Status:    StatusAdmitted,
				IsHost:    true,
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		Game: Game{
			Status:          GameLobby,
			Config:          DefaultGameConfig(),
			TurnOrder:       []string{},
			CompletedRounds: []CompletedRound{},
		},
	}
	return room, nil
}

// HostParticipantID repeats idgen's literal (same value, declared here) so
// callers outside idgen don't need to import it just to compare against
// the host's id.
const HostParticipantID = "host"

// SubmitJoin implements spec.md §4.1 submitJoin. participantID is generated
// by the caller (the actor, via idgen) before the transition runs.
func SubmitJoin(r Room, participantID, rawName string, now time.Time) (Room, Event, *Failure) {
	if r.Game.Status != GameLobby {
		return r, Event{}, fail(Gone, "room is no longer accepting join requests")
	}
	name, ferr := validateName(rawName)
	if ferr != nil {
		return r, Event{}, ferr
	}
	if nameTaken(r, name) {
		return r, Event{}, fail(Conflict, "name %q is already taken in this room", name)
	}
	active := 0
	for _, p := range r.Participants {
		if p.Status != StatusRejected {
			active++
		}
	}
	if active >= r.MaxParticipants {
		return r, Event{}, fail(Conflict, "room is full")
	}

	next := r.clone()
	p := Participant{
		ID:        participantID,
		Name:      name,
		Status:    StatusPending,
		IsHost:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	next.Participants = append(next.Participants, p)
	return next, Event{Type: EventJoinRequest, Participant: &p}, nil
}

// ReviewJoin implements spec.md §4.1 reviewJoin.
func ReviewJoin(r Room, hostToken, requestID string, approve bool, now time.Time) (Room, Event, *Failure) {
	if ferr := checkHostAuth(r, hostToken); ferr != nil {
		return r, Event{}, ferr
	}
	if r.Game.Status != GameLobby {
		return r, Event{}, fail(Conflict, "game has already started")
	}
	idx := r.participantIndex(requestID)
	if idx < 0 || r.Participants[idx].Status != StatusPending {
		return r, Event{}, fail(NotFound, "no pending join request %q", requestID)
	}
	if approve && r.admittedCount() >= r.MaxParticipants {
		return r, Event{}, fail(Conflict, "room is full")
	}

	next := r.clone()
	if approve {
		next.Participants[idx].Status = StatusAdmitted
	} else {
		next.Participants[idx].Status = StatusRejected
	}
	next.Participants[idx].UpdatedAt = now
	p := next.Participants[idx]
	return next, Event{Type: EventAdmissionUpdate, Participant: &p}, nil
}

// StartGame implements spec.md §4.1 startGame.
func StartGame(r Room, hostToken string, cfg *GameConfig, now time.Time) (Room, Event, *Failure) {
	if ferr := checkHostAuth(r, hostToken); ferr != nil {
		return r, Event{}, ferr
	}
	if r.Game.Status != GameLobby {
		return r, Event{}, fail(Conflict, "game has already started")
	}
	for _, p := range r.Participants {
		if p.Status == StatusPending {
			return r, Event{}, fail(Conflict, "join requests are still pending")
		}
	}
	if r.admittedCount() < 2 {
		return r, Event{}, fail(Conflict, "at least two admitted participants are required")
	}

	resolved := DefaultGameConfig()
	if cfg != nil {
		resolved = *cfg
	}
	if ferr := validateConfig(resolved); ferr != nil {
		return r, Event{}, ferr
	}

	var admitted []Participant
	var turnOrder []string
	for _, p := range r.Participants {
		if p.Status == StatusAdmitted {
			admitted = append(admitted, p)
			turnOrder = append(turnOrder, p.ID)
		}
	}
	if (26/len(turnOrder))*len(turnOrder) < 1 {
		return r, Event{}, fail(Conflict, "not enough admitted participants to play a fair round")
	}

	next := r.clone()
	next.Participants = admitted
	next.Game.Config = resolved
	next.Game.TurnOrder = turnOrder
	next.Game.CurrentTurnIndex = 0
	next.Game.Status = GameInProgress
	next.Game.StartedAt = &now
	return next, Event{Type: EventGameStarted}, nil
}

// CallNumber implements spec.md §4.1 callNumber.
func CallNumber(r Room, participantID string, number int, now time.Time) (Room, Event, *Failure) {
	if r.Game.Status != GameInProgress {
		return r, Event{}, fail(Conflict, "game is not in progress")
	}
	if r.Game.ActiveRound != nil {
		return r, Event{}, fail(Conflict, "a round is already in progress")
	}
	for _, cr := range r.Game.CompletedRounds {
		if cr.ScorePublishedAt == nil {
			return r, Event{}, fail(Conflict, "a previous round has not been finalised")
		}
	}
	if number < 1 || number > 26 {
		return r, Event{}, fail(BadRequest, "number must be between 1 and 26")
	}
	if r.isCalledNumberUsed(number) {
		return r, Event{}, fail(Conflict, "number %d has already been called", number)
	}
	if len(r.Game.CompletedRounds) >= r.MaxFairRounds() {
		return r, Event{}, fail(Conflict, "maximum fair rounds reached")
	}
	caller, ok := r.currentTurnParticipantID()
	if !ok || participantID != caller {
		return r, Event{}, fail(Forbidden, "it is not your turn to call")
	}
	callerName := ""
	if p, ok := r.findParticipant(participantID); ok {
		callerName = p.Name
	}

	countdownEndsAt := now.Add(countdownDuration)
	var endsAt *time.Time
	if r.Game.Config.EndRule != EndRuleFirstSubmission {
		t := countdownEndsAt.Add(time.Duration(r.Game.Config.RoundSeconds) * time.Second)
		endsAt = &t
	}

	next := r.clone()
	next.Game.ActiveRound = &ActiveRound{
		RoundNumber:         len(r.Game.CompletedRounds) + 1,
		TurnParticipantID:   participantID,
		TurnParticipantName: callerName,
		CalledNumber:        number,
		ActiveLetter:        activeLetter(number),
		StartedAt:           now,
		CountdownEndsAt:     countdownEndsAt,
		EndsAt:              endsAt,
		Submissions:         []Submission{},
		Drafts:              map[string]FieldSet{},
	}
	return next, Event{Type: EventTurnCalled}, nil
}

func overlay(base FieldSet, partial FieldSet) FieldSet {
	out := base
	for _, kv := range partial.fields() {
		n := normalize(kv.value)
		if n != "" {
			out.set(kv.key, n)
		}
	}
	return out
}

func mustBeOpenRound(r Room, participantID string) (*ActiveRound, *Failure) {
	p, ok := r.findParticipant(participantID)
	if !ok || p.Status != StatusAdmitted {
		return nil, fail(Forbidden, "participant is not admitted")
	}
	ar := r.Game.ActiveRound
	if r.Game.Status != GameInProgress || ar == nil {
		return nil, fail(Conflict, "no round is currently open")
	}
	return ar, nil
}

// UpdateDraft implements spec.md §4.1 updateDraft. It produces no Event:
// draft edits are not part of the push-surface event list (spec.md §6.2).
func UpdateDraft(r Room, participantID string, partial FieldSet, now time.Time) (Room, *Failure) {
	ar, ferr := mustBeOpenRound(r, participantID)
	if ferr != nil {
		return r, ferr
	}
	if now.Before(ar.CountdownEndsAt) {
		return r, fail(Conflict, "round is still in its countdown")
	}
	for _, s := range ar.Submissions {
		if s.ParticipantID == participantID {
			return r, fail(Conflict, "already submitted this round")
		}
	}

	next := r.clone()
	existing := next.Game.ActiveRound.Drafts[participantID]
	next.Game.ActiveRound.Drafts[participantID] = overlay(existing, partial)
	return next, nil
}

// SubmitAnswers implements spec.md §4.1 submitAnswers.
func SubmitAnswers(r Room, participantID string, answers FieldSet, now time.Time) (Room, Event, *Failure) {
	ar, ferr := mustBeOpenRound(r, participantID)
	if ferr != nil {
		return r, Event{}, ferr
	}
	if now.Before(ar.CountdownEndsAt) {
		return r, Event{}, fail(Conflict, "round is still in its countdown")
	}
	for _, s := range ar.Submissions {
		if s.ParticipantID == participantID {
			return r, Event{}, fail(Conflict, "already submitted this round")
		}
	}

	participantName := ""
	if p, ok := r.findParticipant(participantID); ok {
		participantName = p.Name
	}
	draft := ar.Drafts[participantID]
	final := overlay(draft, answers)

	next := r.clone()
	delete(next.Game.ActiveRound.Drafts, participantID)
	next.Game.ActiveRound.Submissions = append(next.Game.ActiveRound.Submissions, Submission{
		ParticipantID:   participantID,
		ParticipantName: participantName,
		Answers:         final,
		SubmittedAt:     now,
	})

	cfg := next.Game.Config
	if cfg.EndRule == EndRuleFirstSubmission || cfg.EndRule == EndRuleWhicheverFirst {
		cr := endActiveRound(&next, EndReasonFirstSubmit, now)
		return next, Event{Type: EventRoundEnded, Reason: EndReasonFirstSubmit, CompletedRound: &cr}, nil
	}
	return next, Event{Type: EventSubmissionReceived, ParticipantID: participantID}, nil
}

// EndRoundEarly implements spec.md §4.1 endRoundEarly.
func EndRoundEarly(r Room, participantID string, now time.Time) (Room, Event, *Failure) {
	if r.Game.Status != GameInProgress || r.Game.ActiveRound == nil {
		return r, Event{}, fail(Conflict, "no round is currently open")
	}
	p, ok := r.findParticipant(participantID)
	if !ok || p.Status != StatusAdmitted {
		return r, Event{}, fail(Forbidden, "participant is not admitted")
	}
	ar := r.Game.ActiveRound
	authorised := false
	switch r.Game.Config.ManualEndPolicy {
	case ManualEndHostOrCaller:
		authorised = p.IsHost || participantID == ar.TurnParticipantID
	case ManualEndCallerOnly, ManualEndCallerOrTimer:
		authorised = participantID == ar.TurnParticipantID
	case ManualEndNone:
		authorised = false
	}
	if !authorised {
		return r, Event{}, fail(Forbidden, "not permitted to end this round early")
	}

	next := r.clone()
	cr := endActiveRound(&next, EndReasonManual, now)
	return next, Event{Type: EventRoundEnded, Reason: EndReasonManual, CompletedRound: &cr}, nil
}

// TimerExpired implements spec.md §4.1 timerExpired. It is scheduler-only:
// a late or stale fire returns a nil Event and is silently dropped by the
// actor, never a Failure, per spec.md §7 ("Scheduler callbacks that fail
// ... are silently dropped").
func TimerExpired(r Room, now time.Time) (Room, *Event) {
	ar := r.Game.ActiveRound
	if r.Game.Status != GameInProgress || ar == nil || ar.EndsAt == nil || now.Before(*ar.EndsAt) {
		return r, nil
	}
	next := r.clone()
	cr := endActiveRound(&next, EndReasonTimer, now)
	return next, &Event{Type: EventRoundEnded, Reason: EndReasonTimer, CompletedRound: &cr}
}

// endActiveRound forces submissions for every admitted participant who has
// not submitted, closes the active round into a CompletedRound, and
// advances the turn. next must already be an owned (cloned) Room.
func endActiveRound(next *Room, reason EndReason, now time.Time) CompletedRound {
	ar := next.Game.ActiveRound
	submitted := map[string]bool{}
	for _, s := range ar.Submissions {
		submitted[s.ParticipantID] = true
	}
	for _, p := range next.Participants {
		if p.Status != StatusAdmitted || submitted[p.ID] {
			continue
		}
		answers := ar.Drafts[p.ID]
		ar.Submissions = append(ar.Submissions, Submission{
			ParticipantID:   p.ID,
			ParticipantName: p.Name,
			Answers:         answers,
			SubmittedAt:     now,
		})
	}

	cr := CompletedRound{
		RoundNumber:         ar.RoundNumber,
		TurnParticipantID:   ar.TurnParticipantID,
		TurnParticipantName: ar.TurnParticipantName,
		CalledNumber:        ar.CalledNumber,
		ActiveLetter:        ar.ActiveLetter,
		StartedAt:           ar.StartedAt,
		CountdownEndsAt:     ar.CountdownEndsAt,
		EndsAt:              ar.EndsAt,
		Submissions:         ar.Submissions,
		EndedAt:             now,
		EndReason:           reason,
	}
	next.Game.CompletedRounds = append(next.Game.CompletedRounds, cr)
	next.Game.ActiveRound = nil
	if n := len(next.Game.TurnOrder); n > 0 {
		next.Game.CurrentTurnIndex = (next.Game.CurrentTurnIndex + 1) % n
	}
	return cr
}

// ScoreSubmission implements spec.md §4.1 scoreSubmission.
func ScoreSubmission(r Room, hostToken string, roundNumber int, participantID string, marks FieldMarks, now time.Time) (Room, Event, *Failure) {
	if ferr := checkHostAuth(r, hostToken); ferr != nil {
		return r, Event{}, ferr
	}
	idx := r.completedRoundIndex(roundNumber)
	if idx < 0 {
		return r, Event{}, fail(NotFound, "round %d not found", roundNumber)
	}
	if r.Game.CompletedRounds[idx].ScorePublishedAt != nil {
		return r, Event{}, fail(Conflict, "round %d has already been finalised", roundNumber)
	}
	subIdx := -1
	for i, s := range r.Game.CompletedRounds[idx].Submissions {
		if s.ParticipantID == participantID {
			subIdx = i
			break
		}
	}
	if subIdx < 0 {
		return r, Event{}, fail(NotFound, "no submission from %q in round %d", participantID, roundNumber)
	}

	next := r.clone()
	sub := &next.Game.CompletedRounds[idx].Submissions[subIdx]
	sub.Review = &Review{
		Marks:        marks,
		MarkedByID:   HostParticipantID,
		MarkedByName: r.HostName,
		MarkedAt:     now,
	}
	recomputeScores(next.Game.Config.ScoringMode, next.Game.CompletedRounds[idx].Submissions)
	return next, Event{Type: EventSubmissionScored, RoundNumber: roundNumber, ParticipantID: participantID}, nil
}

// PublishRound implements spec.md §4.1 publishRound.
func PublishRound(r Room, hostToken string, roundNumber int, now time.Time) (Room, Event, *Failure) {
	if ferr := checkHostAuth(r, hostToken); ferr != nil {
		return r, Event{}, ferr
	}
	idx := r.completedRoundIndex(roundNumber)
	if idx < 0 {
		return r, Event{}, fail(NotFound, "round %d not found", roundNumber)
	}
	cr := r.Game.CompletedRounds[idx]
	if cr.ScorePublishedAt != nil {
		return r, Event{}, fail(Conflict, "round %d has already been finalised", roundNumber)
	}
	for _, s := range cr.Submissions {
		if s.Review == nil {
			return r, Event{}, fail(Conflict, "every submission in round %d must be reviewed before publishing", roundNumber)
		}
	}

	next := r.clone()
	next.Game.CompletedRounds[idx].ScorePublishedAt = &now
	return next, Event{Type: EventRoundScoresPublished, RoundNumber: roundNumber}, nil
}

// DiscardRound implements spec.md §4.1 discardRound. Per spec.md §9 open
// question, scorePublishedAt is still stamped: the round is finalised with
// a zero contribution, not left open for a future publish.
func DiscardRound(r Room, hostToken string, roundNumber int, now time.Time) (Room, Event, *Failure) {
	if ferr := checkHostAuth(r, hostToken); ferr != nil {
		return r, Event{}, ferr
	}
	idx := r.completedRoundIndex(roundNumber)
	if idx < 0 {
		return r, Event{}, fail(NotFound, "round %d not found", roundNumber)
	}
	if r.Game.CompletedRounds[idx].ScorePublishedAt != nil {
		return r, Event{}, fail(Conflict, "round %d has already been finalised", roundNumber)
	}

	next := r.clone()
	for i := range next.Game.CompletedRounds[idx].Submissions {
		next.Game.CompletedRounds[idx].Submissions[i].Review = nil
	}
	next.Game.CompletedRounds[idx].ScorePublishedAt = &now
	return next, Event{Type: EventRoundScoresDiscarded, RoundNumber: roundNumber}, nil
}

// CancelGame implements spec.md §4.1 cancelGame.
func CancelGame(r Room, hostToken string, now time.Time) (Room, Event, *Failure) {
	if ferr := checkHostAuth(r, hostToken); ferr != nil {
		return r, Event{}, ferr
	}
	if r.Game.Status != GameLobby && r.Game.Status != GameInProgress {
		return r, Event{}, fail(Conflict, "game cannot be cancelled from its current status")
	}

	next := r.clone()
	next.Game.ActiveRound = nil
	next.Game.Status = GameCancelled
	next.Game.CancelledAt = &now
	return next, Event{Type: EventGameCancelled}, nil
}

// EndGame implements spec.md §4.1 endGame.
func EndGame(r Room, hostToken string, now time.Time) (Room, Event, *Failure) {
	if ferr := checkHostAuth(r, hostToken); ferr != nil {
		return r, Event{}, ferr
	}
	if r.Game.Status != GameInProgress {
		return r, Event{}, fail(Conflict, "game is not in progress")
	}

	next := r.clone()
	for i := range next.Game.CompletedRounds {
		cr := &next.Game.CompletedRounds[i]
		if cr.ScorePublishedAt != nil {
			continue
		}
		complete := true
		for _, s := range cr.Submissions {
			if s.Review == nil {
				complete = false
				break
			}
		}
		if complete {
			cr.ScorePublishedAt = &now
		}
	}
	next.Game.ActiveRound = nil
	next.Game.Status = GameFinished
	next.Game.FinishedAt = &now
	return next, Event{Type: EventGameEnded}, nil
}

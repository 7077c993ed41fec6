package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saeidalz13/battleship-arena/internal"
	cerr "github.com/saeidalz13/battleship-arena/internal/error"
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
	mc "github.com/saeidalz13/battleship-arena/models/connection"
)

// Request is one decoded frame from a session. Every handler returns
// the direct reply for the caller, or nil when the outcome reaches the
// caller as a match event instead.
type Request struct {
	session *mc.Session
	payload []byte
}

func NewRequest(session *mc.Session, payload []byte) Request {
	return Request{session: session, payload: payload}
}

func errorReply(code uint8, err error) mc.Message[mc.NoPayload] {
	msg := mc.NewMessage[mc.NoPayload](code)
	msg.AddDomainError(err)
	return msg
}

func decodeReply(code uint8, err error) mc.Message[mc.NoPayload] {
	msg := mc.NewMessage[mc.NoPayload](code)
	msg.AddError(err.Error(), "invalid payload")
	return msg
}

// boundMatch resolves the match the session's player sits in.
func (r Request) boundMatch(rp RequestProcessor) (*mb.Match, string, error) {
	playerId, matchId := r.session.PlayerId(), r.session.MatchId()
	if playerId == "" {
		return nil, "", cerr.ErrSessionNotInMatch(r.session.Id())
	}

	match, err := rp.matchManager.GetMatch(matchId)
	if errors.Is(err, cerr.ErrNotFound) {
		// evicted after it ended
		rp.sessionManager.UnbindPlayer(r.session)
		return nil, "", cerr.ErrSessionNotInMatch(r.session.Id())
	}
	if err != nil {
		return nil, "", err
	}
	return match, playerId, nil
}

// releaseEndedMatch unbinds the session from a match that has finished,
// been abandoned or evicted, so the player can start or join another.
// It reports whether the session is free afterwards.
func (r Request) releaseEndedMatch(rp RequestProcessor) bool {
	playerId, matchId := r.session.PlayerId(), r.session.MatchId()
	if playerId == "" {
		return true
	}

	match, err := rp.matchManager.GetMatch(matchId)
	if err == nil && !match.State().IsTerminal() {
		return false
	}

	rp.sessionManager.UnbindPlayer(r.session)
	if match != nil {
		if err := match.Leave(playerId); err != nil {
			log.Debug().Err(err).Str("match_id", matchId).Str("player_id", playerId).Msg("leave ended match")
		}
	}
	return true
}

func (r Request) HandleCreateMatch(rp RequestProcessor) any {
	if !r.releaseEndedMatch(rp) {
		return errorReply(mc.CodeCreateMatch, cerr.ErrAlreadyInMatch)
	}

	var req mc.Message[mc.ReqCreateMatch]
	if err := json.Unmarshal(r.payload, &req); err != nil {
		return decodeReply(mc.CodeCreateMatch, err)
	}

	playerId := uuid.NewString()
	matchId, err := rp.matchManager.CreateMatch(mb.CreateMatchParams{
		HostId:    playerId,
		HostName:  req.Payload.PlayerName,
		MatchName: req.Payload.MatchName,
		Password:  req.Payload.Password,
	})
	if err != nil {
		return errorReply(mc.CodeCreateMatch, err)
	}

	match, err := rp.matchManager.GetMatch(matchId)
	if err != nil {
		return errorReply(mc.CodeCreateMatch, err)
	}
	rp.sessionManager.BindPlayer(r.session, playerId, matchId)

	inviteLink, err := internal.BuildInviteLink(rp.publicURL, matchId, match.Name(), req.Payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("match_id", matchId).Msg("failed to build invite link")
	}

	if rp.analytics != nil {
		if err := rp.analytics.IncrementMatchesCreatedCount(context.Background()); err != nil {
			// for now not killing the match for it
			log.Error().Err(err).Str("match_id", matchId).Msg("failed to increment created matches")
		}
	}

	resp := mc.NewMessage[mc.RespCreateMatch](mc.CodeCreateMatch)
	resp.AddPayload(mc.RespCreateMatch{
		MatchId:      matchId,
		MatchName:    match.Name(),
		PlayerId:     playerId,
		PlayerNumber: 1,
		InviteLink:   inviteLink,
	})
	return resp
}

func (r Request) HandleJoinMatch(rp RequestProcessor) any {
	if !r.releaseEndedMatch(rp) {
		return errorReply(mc.CodeJoinMatch, cerr.ErrAlreadyInMatch)
	}

	var req mc.Message[mc.ReqJoinMatch]
	if err := json.Unmarshal(r.payload, &req); err != nil {
		return decodeReply(mc.CodeJoinMatch, err)
	}

	match, err := rp.matchManager.GetMatch(req.Payload.MatchId)
	if err != nil {
		return errorReply(mc.CodeJoinMatch, err)
	}

	player, err := match.Join(uuid.NewString(), req.Payload.PlayerName, req.Payload.Password)
	if err != nil {
		return errorReply(mc.CodeJoinMatch, err)
	}
	rp.sessionManager.BindPlayer(r.session, player.Id(), match.Id())

	resp := mc.NewMessage[mc.RespJoinMatch](mc.CodeJoinMatch)
	resp.AddPayload(mc.RespJoinMatch{
		MatchId:      match.Id(),
		MatchName:    match.Name(),
		PlayerId:     player.Id(),
		PlayerNumber: player.PlayerNumber(),
		HostId:       match.HostId(),
	})
	return resp
}

func (r Request) HandleSubmitFleet(rp RequestProcessor) any {
	var req mc.Message[mc.ReqSubmitFleet]
	if err := json.Unmarshal(r.payload, &req); err != nil {
		return decodeReply(mc.CodeSubmitFleet, err)
	}

	match, playerId, err := r.boundMatch(rp)
	if err != nil {
		return errorReply(mc.CodeSubmitFleet, err)
	}
	if err := match.SubmitFleet(playerId, req.Payload.Placements()); err != nil {
		return errorReply(mc.CodeSubmitFleet, err)
	}
	return nil
}

func (r Request) HandleFire(rp RequestProcessor) any {
	var req mc.Message[mc.ReqFire]
	if err := json.Unmarshal(r.payload, &req); err != nil {
		return decodeReply(mc.CodeFire, err)
	}

	match, playerId, err := r.boundMatch(rp)
	if err != nil {
		return errorReply(mc.CodeFire, err)
	}
	if _, err := match.Fire(playerId, req.Payload.Row, req.Payload.Col); err != nil {
		return errorReply(mc.CodeFire, err)
	}
	return nil
}

func (r Request) HandlePause(rp RequestProcessor) any {
	match, playerId, err := r.boundMatch(rp)
	if err != nil {
		return errorReply(mc.CodePause, err)
	}
	if err := match.Pause(playerId); err != nil {
		return errorReply(mc.CodePause, err)
	}
	return nil
}

func (r Request) HandleResume(rp RequestProcessor) any {
	match, playerId, err := r.boundMatch(rp)
	if err != nil {
		return errorReply(mc.CodeResume, err)
	}
	if _, err := match.Resume(playerId); err != nil {
		return errorReply(mc.CodeResume, err)
	}
	return nil
}

// HandleLeave unbinds the session before leaving so the player-left
// event only reaches whoever is still seated.
func (r Request) HandleLeave(rp RequestProcessor) any {
	playerId, matchId := rp.sessionManager.UnbindPlayer(r.session)
	if playerId == "" {
		return errorReply(mc.CodeLeave, cerr.ErrSessionNotInMatch(r.session.Id()))
	}

	if match, err := rp.matchManager.GetMatch(matchId); err == nil {
		if err := match.Leave(playerId); err != nil {
			log.Debug().Err(err).Str("match_id", matchId).Str("player_id", playerId).Msg("leave")
		}
	}

	return mc.NewMessage[mc.NoPayload](mc.CodeLeave)
}

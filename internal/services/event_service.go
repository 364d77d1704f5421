package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

var ErrOrganizersOnly = newError(ErrForbidden, "Only event organizers can create events")

type EventService struct {
	store     storage.Store
	clientURL string
	log       zerolog.Logger
	now       func() time.Time
}

// NewEventService builds the service; clientURL prefixes invitation join links.
func NewEventService(store storage.Store, clientURL string) *EventService {
	return &EventService{
		store:     store,
		clientURL: strings.TrimRight(clientURL, "/"),
		log:       logging.Component("events"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *EventService) Create(ctx context.Context, organizerID primitive.ObjectID, role models.Role, req models.EventRequest) (*models.Event, error) {
	if role != models.RoleEventOrganizer {
		return nil, ErrOrganizersOnly
	}
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}
	now := s.now()
	e := &models.Event{
		ID:          primitive.NewObjectID(),
		OrganizerID: organizerID,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		Attendees:   []primitive.ObjectID{},
		Invited:     []primitive.ObjectID{},
		Rejected:    []primitive.ObjectID{},
		JoinToken:   uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.Info().Str("event_id", e.ID.Hex()).Str("organizer_id", organizerID.Hex()).Msg("event created")
	return e, nil
}

func (s *EventService) Get(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	return getEvent(ctx, s.store, id)
}

// ListUpcoming returns events that have not ended yet.
func (s *EventService) ListUpcoming(ctx context.Context) ([]*models.Event, error) {
	return s.store.ListEventsEndingAfter(ctx, s.now())
}

func (s *EventService) ListByOrganizer(ctx context.Context, organizerID primitive.ObjectID) ([]*models.Event, error) {
	return s.store.ListEventsByOrganizer(ctx, organizerID)
}

func (s *EventService) Update(ctx context.Context, organizerID, eventID primitive.ObjectID, req models.EventRequest) (*models.Event, error) {
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}
	e, err := s.owned(ctx, organizerID, eventID)
	if err != nil {
		return nil, err
	}
	e.Name = req.Name
	e.Description = req.Description
	e.Location = req.Location
	e.StartTime = req.StartTime.UTC()
	e.EndTime = req.EndTime.UTC()
	e.UpdatedAt = s.now()
	if err := s.store.UpdateEvent(ctx, e); err != nil {
		return nil, mapEventErr(err)
	}
	return e, nil
}

func (s *EventService) Delete(ctx context.Context, organizerID, eventID primitive.ObjectID) error {
	if _, err := s.owned(ctx, organizerID, eventID); err != nil {
		return err
	}
	return mapEventErr(s.store.DeleteEvent(ctx, eventID))
}

func (s *EventService) owned(ctx context.Context, organizerID, eventID primitive.ObjectID) (*models.Event, error) {
	e, err := getEvent(ctx, s.store, eventID)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != organizerID {
		return nil, ErrNotOwner
	}
	return e, nil
}

// Invite adds inviteeID to the event's invited list and drops a message with
// the join link in their inbox.
func (s *EventService) Invite(ctx context.Context, eventID, organizerID, inviteeID primitive.ObjectID) (*models.Event, error) {
	var out *models.Event
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.owned(ctx, organizerID, eventID)
		if err != nil {
			return err
		}
		invitee, err := getUser(ctx, s.store, inviteeID)
		if err != nil {
			return err
		}
		if !invitee.Role.IsCGE() || invitee.ID == organizerID {
			return invalidField("userId", "This user cannot be invited")
		}
		if models.ContainsID(e.Invited, inviteeID) || models.ContainsID(e.Attendees, inviteeID) {
			return ErrAlreadyInvited
		}
		organizer, err := getUser(ctx, s.store, organizerID)
		if err != nil {
			return err
		}

		e.Invited = append(e.Invited, inviteeID)
		e.Rejected = models.RemoveID(e.Rejected, inviteeID)
		e.UpdatedAt = s.now()
		if err := s.store.UpdateEvent(ctx, e); err != nil {
			return mapEventErr(err)
		}

		msg := models.NewInboxMessage(organizer.Name, "Event Invitation: "+e.Name,
			fmt.Sprintf("You are invited to %s at %s on %s. Join here: %s",
				e.Name, e.Location, e.StartTime.Format("2 Jan 2006 15:04"), s.joinURL(e)))
		if err := s.store.PushInboxMessage(ctx, inviteeID, msg); err != nil {
			return fmt.Errorf("push invitation: %w", err)
		}
		out = e
		return nil
	})
	return out, err
}

func (s *EventService) joinURL(e *models.Event) string {
	return s.clientURL + "/events/join/" + e.JoinToken
}

// Accept moves an invited user to the attendee list.
func (s *EventService) Accept(ctx context.Context, eventID, userID primitive.ObjectID) (*models.Event, error) {
	return s.respond(ctx, eventID, userID, true)
}

// Reject moves an invited user to the rejected list.
func (s *EventService) Reject(ctx context.Context, eventID, userID primitive.ObjectID) (*models.Event, error) {
	return s.respond(ctx, eventID, userID, false)
}

func (s *EventService) respond(ctx context.Context, eventID, userID primitive.ObjectID, accept bool) (*models.Event, error) {
	var out *models.Event
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := getEvent(ctx, s.store, eventID)
		if err != nil {
			return err
		}
		if !models.ContainsID(e.Invited, userID) {
			return ErrNotInvited
		}
		e.Invited = models.RemoveID(e.Invited, userID)
		if accept {
			e.Attendees = append(e.Attendees, userID)
		} else {
			e.Rejected = append(e.Rejected, userID)
		}
		e.UpdatedAt = s.now()
		if err := s.store.UpdateEvent(ctx, e); err != nil {
			return mapEventErr(err)
		}
		out = e
		return nil
	})
	return out, err
}

// JoinByToken adds userID to the attendees of the event behind a join link.
// Joining twice is a no-op.
func (s *EventService) JoinByToken(ctx context.Context, token string, userID primitive.ObjectID) (*models.Event, error) {
	var out *models.Event
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.store.GetEventByJoinToken(ctx, strings.TrimSpace(token))
		if err != nil {
			return mapEventErr(err)
		}
		out = e
		if models.ContainsID(e.Attendees, userID) {
			return nil
		}
		e.Attendees = append(e.Attendees, userID)
		e.Invited = models.RemoveID(e.Invited, userID)
		e.Rejected = models.RemoveID(e.Rejected, userID)
		e.UpdatedAt = s.now()
		return mapEventErr(s.store.UpdateEvent(ctx, e))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getEvent(ctx context.Context, events storage.EventStore, id primitive.ObjectID) (*models.Event, error) {
	e, err := events.GetEvent(ctx, id)
	if err != nil {
		return nil, mapEventErr(err)
	}
	return e, nil
}

func mapEventErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return ErrEventNotFound
	}
	return fmt.Errorf("event store: %w", err)
}

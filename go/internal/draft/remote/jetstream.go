package remote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty/go/internal/models"
)

const (
	headerKind = "Ledger-Kind"
	kindPick   = "pick"
	kindReset  = "reset"
)

type JetStreamConfig struct {
	StreamName      string
	SubjectPrefix   string
	Replicas        int
	DuplicateWindow time.Duration
	Storage         jetstream.StorageType
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		StreamName:      "DRAFT_PICKS",
		SubjectPrefix:   "draft.picks",
		Replicas:        1,
		DuplicateWindow: 2 * time.Minute,
		Storage:         jetstream.FileStorage,
	}
}

// JetStreamStore keeps room ledgers in a JetStream stream. Each pick is its
// own subject, <prefix>.<room>.<pick number>, so a pick number can only be
// written once. Reset purges the room and leaves a reset marker for
// watchers that already folded the old picks.
type JetStreamStore struct {
	js     jetstream.JetStream
	config JetStreamConfig
}

func NewJetStreamStore(ctx context.Context, js jetstream.JetStream, cfg JetStreamConfig) (*JetStreamStore, error) {
	s := &JetStreamStore{js: js, config: cfg}
	if err := s.ensureStream(ctx); err != nil {
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return s, nil
}

func (s *JetStreamStore) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        s.config.StreamName,
		Description: "Draft room pick ledgers",
		Subjects:    []string{s.config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		Storage:     s.config.Storage,
		Replicas:    s.config.Replicas,
		Duplicates:  s.config.DuplicateWindow,
	}
	if _, err := s.js.CreateOrUpdateStream(ctx, sc); err != nil {
		return fmt.Errorf("create or update stream: %w", err)
	}
	log.Info().Str("stream", s.config.StreamName).Msg("JetStream ledger stream ready")
	return nil
}

func (s *JetStreamStore) roomFilter(roomID string) string {
	return fmt.Sprintf("%s.%s.>", s.config.SubjectPrefix, roomID)
}

func (s *JetStreamStore) pickSubject(roomID string, pickNumber int) string {
	return fmt.Sprintf("%s.%s.%d", s.config.SubjectPrefix, roomID, pickNumber)
}

func (s *JetStreamStore) resetSubject(roomID string) string {
	return fmt.Sprintf("%s.%s.%s", s.config.SubjectPrefix, roomID, kindReset)
}

func (s *JetStreamStore) AppendPick(ctx context.Context, roomID string, pick models.RawPick) error {
	data, err := sonic.Marshal(pick)
	if err != nil {
		return fmt.Errorf("marshal pick: %w", err)
	}

	msgID := roomID + "-" + strconv.Itoa(pick.PickNumber) + "-" + strconv.FormatInt(pick.Timestamp.UnixNano(), 10)
	_, err = s.js.PublishMsg(ctx, &nats.Msg{
		Subject: s.pickSubject(roomID, pick.PickNumber),
		Data:    data,
		Header:  nats.Header{headerKind: []string{kindPick}},
	},
		jetstream.WithMsgID(msgID),
		jetstream.WithExpectStream(s.config.StreamName),
		jetstream.WithExpectLastSequencePerSubject(0),
	)
	if err != nil {
		var apiErr *jetstream.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence {
			return fmt.Errorf("room %s pick %d: %w", roomID, pick.PickNumber, ErrPickTaken)
		}
		return fmt.Errorf("publish pick: %w", err)
	}
	return nil
}

func (s *JetStreamStore) Reset(ctx context.Context, roomID string) error {
	stream, err := s.js.Stream(ctx, s.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}
	if err := stream.Purge(ctx, jetstream.WithPurgeSubject(s.roomFilter(roomID))); err != nil {
		return fmt.Errorf("purge room %s: %w", roomID, err)
	}
	_, err = s.js.PublishMsg(ctx, &nats.Msg{
		Subject: s.resetSubject(roomID),
		Header:  nats.Header{headerKind: []string{kindReset}},
	}, jetstream.WithExpectStream(s.config.StreamName))
	if err != nil {
		return fmt.Errorf("publish reset: %w", err)
	}
	return nil
}

func (s *JetStreamStore) Watch(ctx context.Context, roomID string) (<-chan Snapshot, error) {
	stream, err := s.js.Stream(ctx, s.config.StreamName)
	if err != nil {
		return nil, fmt.Errorf("get stream: %w", err)
	}
	filter := s.roomFilter(roomID)
	info, err := stream.Info(ctx, jetstream.WithSubjectFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("stream info: %w", err)
	}

	cons, err := stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{filter},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create ordered consumer: %w", err)
	}

	w := &jetStreamWatch{
		roomID: roomID,
		picks:  make(map[int]models.RawPick),
		ch:     make(chan Snapshot, 1),
	}
	if len(info.State.Subjects) == 0 {
		w.ch <- Snapshot{RoomID: roomID, CurrentPickNumber: 1}
	}

	cc, err := cons.Consume(w.handle, jetstream.ConsumeErrHandler(func(_ jetstream.ConsumeContext, err error) {
		log.Error().Err(err).Str("room_id", roomID).Msg("ledger consumer error")
	}))
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	go func() {
		<-ctx.Done()
		cc.Stop()
		w.close()
	}()
	return w.ch, nil
}

// jetStreamWatch folds ledger messages into snapshots.
type jetStreamWatch struct {
	roomID string

	mu     sync.Mutex
	picks  map[int]models.RawPick
	ch     chan Snapshot
	closed bool
}

func (w *jetStreamWatch) handle(msg jetstream.Msg) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	switch msg.Headers().Get(headerKind) {
	case kindReset:
		w.picks = make(map[int]models.RawPick)
	case kindPick:
		var pick models.RawPick
		if err := sonic.Unmarshal(msg.Data(), &pick); err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject()).Msg("dropping malformed ledger message")
			break
		}
		if _, exists := w.picks[pick.PickNumber]; !exists {
			w.picks[pick.PickNumber] = pick
		}
	default:
		log.Warn().Str("subject", msg.Subject()).Msg("dropping ledger message without kind")
	}

	// only publish once caught up with the stream
	meta, err := msg.Metadata()
	if err == nil && meta.NumPending > 0 {
		return
	}
	sendLatest(w.ch, w.snapshotLocked())
}

func (w *jetStreamWatch) snapshotLocked() Snapshot {
	picks := make([]models.RawPick, 0, len(w.picks))
	for _, p := range w.picks {
		picks = append(picks, p)
	}
	sortRaw(picks)
	return Snapshot{RoomID: w.roomID, CurrentPickNumber: currentFor(picks), Picks: picks}
}

func (w *jetStreamWatch) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
}

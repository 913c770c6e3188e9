// Package chattransport implements domain/transport.Transport on top of
// go.mau.fi/whatsmeow. One Transport owns one whatsmeow.Client and one
// sqlstore device, persisted under a credential directory exclusive to the
// owning Instance (I6).
//
// Grounded on internal/infra/whats/{client,manager}.go from the teacher
// repo: same whatsmeow wiring (device lookup by saved JID, QR channel
// processing, proxy configuration), rewritten to emit the typed event
// envelope domain/transport defines instead of calling back into
// session-specific handler methods, and with logging de-emoji'd and
// translated to English to match this repo's ambient style.
package chattransport

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/mdp/qrterminal/v3"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"chatgateway/internal/domain/transport"
	"chatgateway/pkg/logger"
)

// thumbnailMaxDimension bounds the JPEG preview whatsmeow embeds alongside
// an uploaded image, matching the size WhatsApp clients render inline.
const thumbnailMaxDimension = 72

// transientStreamCodes are stream-error codes whatsmeow surfaces that are
// ordinarily benign noise during a reconnect, not a fatal protocol failure
// (9 — open question on transient protocol codes). This set is fixed in the
// adapter; the runtime separately consults the ReconnectPolicy's configured
// transient codes.
var transientStreamCodes = map[string]bool{
	"conflict": true,
	"replaced": true,
	"restart":  true,
}

// Factory constructs whatsmeow-backed Transports sharing one sqlstore
// container (and therefore one underlying database connection pool).
type Factory struct {
	container *sqlstore.Container
	log       logger.Logger
}

func NewFactory(container *sqlstore.Container, log logger.Logger) *Factory {
	return &Factory{container: container, log: log}
}

func (f *Factory) New(phone string, credentialDir string, proxyURL string) (transport.Transport, error) {
	return newTransport(f.container, phone, credentialDir, proxyURL, f.log)
}

// Transport is the whatsmeow-backed implementation of transport.Transport.
type Transport struct {
	phone         string
	credentialDir string
	log           logger.Logger

	container *sqlstore.Container
	client    *whatsmeow.Client

	events chan transport.Event
}

func newTransport(container *sqlstore.Container, phone, credentialDir, proxyURL string, log logger.Logger) (*Transport, error) {
	ctx := context.Background()

	device, err := deviceForPhone(ctx, container, credentialDir, log)
	if err != nil {
		return nil, fmt.Errorf("resolve device: %w", err)
	}

	waClient := whatsmeow.NewClient(device, nil)

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		waClient.SetProxy(http.ProxyURL(parsed))
	}

	t := &Transport{
		phone:         phone,
		credentialDir: credentialDir,
		log:           log,
		container:     container,
		client:        waClient,
		events:        make(chan transport.Event, 64),
	}
	waClient.AddEventHandler(t.handle)
	return t, nil
}

// deviceForPhone loads a persisted JID from credentialDir if present, and
// otherwise allocates a fresh device. The JID file is the only state this
// adapter keeps outside the whatsmeow-owned sqlstore tables.
func deviceForPhone(ctx context.Context, container *sqlstore.Container, credentialDir string, log logger.Logger) (*store.Device, error) {
	jidPath := filepath.Join(credentialDir, "jid")
	savedJID := ""
	if b, err := os.ReadFile(jidPath); err == nil {
		savedJID = strings.TrimSpace(string(b))
	}

	if savedJID == "" {
		return container.NewDevice(), nil
	}

	jid, err := types.ParseJID(savedJID)
	if err != nil {
		log.WarnWithFields("stored jid file is unparseable, allocating new device", logger.Fields{
			"credential_dir": credentialDir, "error": err.Error(),
		})
		return container.NewDevice(), nil
	}

	device, err := container.GetDevice(ctx, jid)
	if err != nil || device == nil {
		log.WarnWithFields("stored jid has no matching device, allocating new device", logger.Fields{
			"credential_dir": credentialDir, "jid": savedJID,
		})
		return container.NewDevice(), nil
	}
	return device, nil
}

func (t *Transport) persistJID(credentialDir, jid string) {
	_ = os.MkdirAll(credentialDir, 0o700)
	_ = os.WriteFile(filepath.Join(credentialDir, "jid"), []byte(jid), 0o600)
}

func (t *Transport) Events() <-chan transport.Event { return t.events }

func (t *Transport) emit(e transport.Event) {
	select {
	case t.events <- e:
	default:
		t.log.WarnWithFields("transport event channel full, dropping event", logger.Fields{
			"phone": t.phone, "kind": e.Kind,
		})
	}
}

// Open connects (or resumes) the underlying whatsmeow client. If the device
// has no stored identity it requests a QR channel first so the resulting
// events.QR events are observed; otherwise it reconnects directly.
func (t *Transport) Open(ctx context.Context) error {
	if t.client.Store.ID == nil {
		qrChan, err := t.client.GetQRChannel(ctx)
		if err != nil && err != whatsmeow.ErrQRStoreContainsID {
			return fmt.Errorf("get qr channel: %w", err)
		}
		if err := t.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if qrChan != nil {
			go t.processQRChannel(qrChan)
		}
		return nil
	}
	return t.client.Connect()
}

func (t *Transport) processQRChannel(ch <-chan whatsmeow.QRChannelItem) {
	for item := range ch {
		switch item.Event {
		case "code":
			t.displayQR(item.Code)
			t.emit(transport.Event{Kind: transport.EventQR, QR: &transport.QREvent{Code: item.Code}})
		case "timeout":
			t.emit(transport.Event{Kind: transport.EventConnectionState, Connection: &transport.ConnectionStateEvent{
				Phase: transport.PhaseClose, UpstreamCode: "qr_timeout",
			}})
		case "success":
			// events.PairSuccess / events.Connected follow through handle().
		}
	}
}

func (t *Transport) displayQR(code string) {
	qrterminal.GenerateHalfBlock(code, qrterminal.L, os.Stdout)
}

// EncodeQRPNG renders a QR payload as a base64 PNG data URI. Nothing in the
// transport or the HTTP control plane calls it.
func EncodeQRPNG(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func (t *Transport) handle(raw interface{}) {
	switch evt := raw.(type) {
	case *events.Connected:
		if t.client.Store.ID != nil {
			t.persistJID(t.credentialDir, t.client.Store.ID.String())
		}
		t.emit(transport.Event{Kind: transport.EventConnectionState, Connection: &transport.ConnectionStateEvent{
			Phase: transport.PhaseOpen,
		}})

	case *events.PairSuccess:
		t.emit(transport.Event{Kind: transport.EventCredentialUpdate, Credential: &transport.CredentialUpdateEvent{}})

	case *events.Disconnected:
		t.emit(transport.Event{Kind: transport.EventConnectionState, Connection: &transport.ConnectionStateEvent{
			Phase: transport.PhaseClose,
		}})

	case *events.LoggedOut:
		t.emit(transport.Event{Kind: transport.EventConnectionState, Connection: &transport.ConnectionStateEvent{
			Phase:    transport.PhaseClose,
			IsLogout: true,
			Cause:    fmt.Errorf("logged out: %s", evt.Reason.String()),
		}})

	case *events.StreamError:
		t.emit(transport.Event{Kind: transport.EventConnectionState, Connection: &transport.ConnectionStateEvent{
			Phase:           transport.PhaseClose,
			IsTransientCode: transientStreamCodes[evt.Code],
			UpstreamCode:    evt.Code,
			Cause:           fmt.Errorf("stream error: %s", evt.Code),
		}})

	case *events.ConnectFailure:
		t.emit(transport.Event{Kind: transport.EventConnectionState, Connection: &transport.ConnectionStateEvent{
			Phase:           transport.PhaseClose,
			IsTransientCode: transientStreamCodes[string(evt.Reason)],
			UpstreamCode:    string(evt.Reason),
			Cause:           fmt.Errorf("connect failure: %s", evt.Reason.String()),
		}})

	case *events.QR:
		if len(evt.Codes) > 0 {
			t.emit(transport.Event{Kind: transport.EventQR, QR: &transport.QREvent{Code: evt.Codes[0]}})
		}

	case *events.Message:
		t.emit(transport.Event{Kind: transport.EventMessage, Message: inboundFromMessage(evt)})

	case *events.GroupInfo:
		if action, participants, ok := groupParticipantChange(evt); ok {
			t.emit(transport.Event{Kind: transport.EventGroupParticipants, GroupParticipants: &transport.GroupParticipantsEvent{
				GroupID: evt.JID.String(), Action: action, Participants: participants,
			}})
		}

	default:
	}
}

func groupParticipantChange(evt *events.GroupInfo) (transport.GroupParticipantAction, []string, bool) {
	switch {
	case len(evt.Join) > 0:
		return transport.ActionAdd, jidsToStrings(evt.Join), true
	case len(evt.Leave) > 0:
		return transport.ActionRemove, jidsToStrings(evt.Leave), true
	case len(evt.Promote) > 0:
		return transport.ActionPromote, jidsToStrings(evt.Promote), true
	case len(evt.Demote) > 0:
		return transport.ActionDemote, jidsToStrings(evt.Demote), true
	default:
		return "", nil, false
	}
}

func jidsToStrings(jids []types.JID) []string {
	out := make([]string, len(jids))
	for i, j := range jids {
		out[i] = j.String()
	}
	return out
}

func inboundFromMessage(evt *events.Message) *transport.InboundMessage {
	msgType := "text"
	switch {
	case evt.Message.GetImageMessage() != nil:
		msgType = "image"
	case evt.Message.GetVideoMessage() != nil:
		msgType = "video"
	case evt.Message.GetAudioMessage() != nil:
		msgType = "audio"
	case evt.Message.GetDocumentMessage() != nil:
		msgType = "document"
	}
	return &transport.InboundMessage{
		ID:        evt.Info.ID,
		From:      evt.Info.Sender.String(),
		To:        evt.Info.Chat.String(),
		PushName:  evt.Info.PushName,
		Type:      msgType,
		Timestamp: evt.Info.Timestamp.Unix(),
		IsFromMe:  evt.Info.IsFromMe,
		Raw:       evt.Message,
	}
}

func (t *Transport) SendText(ctx context.Context, jid, text string) (transport.SendResult, error) {
	recipient, err := types.ParseJID(jid)
	if err != nil {
		return transport.SendResult{}, fmt.Errorf("invalid recipient jid: %w", err)
	}
	resp, err := t.client.SendMessage(ctx, recipient, &waE2E.Message{Conversation: &text})
	if err != nil {
		return transport.SendResult{}, fmt.Errorf("send message: %w", err)
	}
	return transport.SendResult{MessageID: resp.ID}, nil
}

func (t *Transport) SendMedia(ctx context.Context, jid string, media transport.Media) (transport.SendResult, error) {
	recipient, err := types.ParseJID(jid)
	if err != nil {
		return transport.SendResult{}, fmt.Errorf("invalid recipient jid: %w", err)
	}

	data, mimetype, err := fetchMedia(ctx, media.URL)
	if err != nil {
		return transport.SendResult{}, fmt.Errorf("fetch media: %w", err)
	}

	appInfo, err := mediaAppInfo(media.Type)
	if err != nil {
		return transport.SendResult{}, err
	}
	uploaded, err := t.client.Upload(ctx, data, appInfo)
	if err != nil {
		return transport.SendResult{}, fmt.Errorf("upload media: %w", err)
	}

	var thumbnail []byte
	if media.Type == "image" {
		thumbnail = buildThumbnail(data)
	}

	msg, err := mediaMessage(media, mimetype, uploaded, thumbnail)
	if err != nil {
		return transport.SendResult{}, err
	}

	resp, err := t.client.SendMessage(ctx, recipient, msg)
	if err != nil {
		return transport.SendResult{}, fmt.Errorf("send media message: %w", err)
	}
	return transport.SendResult{MessageID: resp.ID}, nil
}

// fetchMedia downloads the caller-supplied media URL; the core only ever
// holds a URL (4.1's outbound Send, Media{type,url,caption?,filename?}), the
// transport is responsible for turning it into bytes the upstream upload
// endpoint accepts.
func fetchMedia(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	mimetype := resp.Header.Get("Content-Type")
	if mimetype == "" {
		mimetype = http.DetectContentType(data)
	}
	return data, mimetype, nil
}

func mediaAppInfo(kind string) (whatsmeow.MediaType, error) {
	switch kind {
	case "image":
		return whatsmeow.MediaImage, nil
	case "video":
		return whatsmeow.MediaVideo, nil
	case "audio":
		return whatsmeow.MediaAudio, nil
	case "document":
		return whatsmeow.MediaDocument, nil
	default:
		return "", fmt.Errorf("unsupported media type: %q", kind)
	}
}

// buildThumbnail normalises an outbound image's orientation against its EXIF
// tag and re-encodes a small JPEG preview for the message's thumbnail field.
// A decode/encode failure is non-fatal: the upload proceeds without one.
func buildThumbnail(data []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil
	}
	thumb := imaging.Fit(img, thumbnailMaxDimension, thumbnailMaxDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil
	}
	return buf.Bytes()
}

func mediaMessage(media transport.Media, mimetype string, up whatsmeow.UploadResponse, thumbnail []byte) (*waE2E.Message, error) {
	switch media.Type {
	case "image":
		return &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			Caption:       proto.String(media.Caption),
			JPEGThumbnail: thumbnail,
		}}, nil
	case "video":
		return &waE2E.Message{VideoMessage: &waE2E.VideoMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			Caption:       proto.String(media.Caption),
			JPEGThumbnail: thumbnail,
		}}, nil
	case "audio":
		return &waE2E.Message{AudioMessage: &waE2E.AudioMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}}, nil
	case "document":
		return &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			FileName:      proto.String(media.Filename),
			Caption:       proto.String(media.Caption),
		}}, nil
	default:
		return nil, fmt.Errorf("unsupported media type: %q", media.Type)
	}
}

func (t *Transport) QueryGroupMetadata(ctx context.Context, jid string) (*transport.GroupMetadata, error) {
	groupJID, err := types.ParseJID(jid)
	if err != nil {
		return nil, fmt.Errorf("invalid group jid: %w", err)
	}
	info, err := t.client.GetGroupInfo(groupJID)
	if err != nil {
		return nil, fmt.Errorf("get group info: %w", err)
	}
	participants := make([]string, len(info.Participants))
	for i, p := range info.Participants {
		participants[i] = p.JID.String()
	}
	return &transport.GroupMetadata{ID: info.JID.String(), Name: info.Name, Participants: participants}, nil
}

func (t *Transport) UserID() (string, bool) {
	if t.client.Store.ID == nil {
		return "", false
	}
	return t.client.Store.ID.String(), true
}

func (t *Transport) Logout(ctx context.Context) error {
	return t.client.Logout(ctx)
}

func (t *Transport) Close() error {
	t.client.Disconnect()
	close(t.events)
	return nil
}

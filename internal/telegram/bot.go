// Package telegram serves chart analysis through a Telegram bot.
//
// A chat sends a photo or image document of a chart, optionally fixes the
// scale with /calibrate and selects a half with /eye. Each analysis is
// answered with the interpretation and an overlay of the measured
// isoptères. State is kept per chat in memory.
package telegram

import (
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/visual-field-mcp/internal/calibration"
	"github.com/ironsheep/visual-field-mcp/internal/chart"
	"github.com/ironsheep/visual-field-mcp/internal/imaging"
	"github.com/ironsheep/visual-field-mcp/internal/measure"
	"github.com/ironsheep/visual-field-mcp/internal/pipeline"
)

const (
	msgHelp = `Send a photo or scan of a Goldmann chart and I will measure its isoptères.

Commands:
/calibrate cx cy rx ry - fixation point and a point on the 90° ring, in image pixels
/eye full|left|right - analyse one half of a two-eye sheet
/analyze - analyse the last chart again
/reset - forget the chart and calibration
/help - this message

Send charts as a file to keep full resolution; Telegram recompresses photos.`

	msgSendChart      = "Send a chart image first."
	msgUnknownCommand = "Unknown command. Use /help."
	msgCalibrateUsage = "Usage: /calibrate cx cy rx ry"
	msgEyeUsage       = "Usage: /eye full|left|right"
	msgReset          = "Chart and calibration cleared."
	msgProcessError   = "Couldn't analyse this chart. Try a sharper image."
)

// downloadTimeout bounds fetching one chart from Telegram.
const downloadTimeout = 60 * time.Second

// session is what the bot remembers about one chat.
type session struct {
	chart       []byte
	calibration *calibration.Points
	eye         imaging.Eye
}

// Bot answers chart analysis requests.
type Bot struct {
	api      *tgbotapi.BotAPI
	analyzer *pipeline.Analyzer
	log      log.FieldLogger

	// fetch downloads a Telegram file by id.
	fetch  func(fileID string) ([]byte, error)
	client *http.Client

	mu       sync.Mutex
	sessions map[int64]*session
}

// NewBot connects to Telegram with token.
func NewBot(token string, debug bool, analyzer *pipeline.Analyzer, logger log.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	api.Debug = debug

	b := newBot(analyzer, logger)
	b.api = api
	b.fetch = b.download
	b.log.WithField("account", api.Self.UserName).Info("authorized")
	return b, nil
}

func newBot(analyzer *pipeline.Analyzer, logger log.FieldLogger) *Bot {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Bot{
		analyzer: analyzer,
		log:      logger.WithField("component", "telegram"),
		client:   &http.Client{Timeout: downloadTimeout},
		sessions: make(map[int64]*session),
	}
}

// Run polls for updates until Stop is called.
func (b *Bot) Run() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for update := range b.api.GetUpdatesChan(u) {
		if update.Message == nil {
			continue
		}
		for _, reply := range b.handleMessage(update.Message) {
			if _, err := b.api.Send(reply); err != nil {
				b.log.WithError(err).Warn("send failed")
			}
		}
	}
	return nil
}

// Stop ends Run.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

// handleMessage returns the replies to msg.
func (b *Bot) handleMessage(msg *tgbotapi.Message) []tgbotapi.Chattable {
	chatID := msg.Chat.ID
	entry := b.log.WithField("chat", chatID)

	if msg.IsCommand() {
		return b.handleCommand(msg)
	}

	fileID := ""
	switch {
	case len(msg.Photo) > 0:
		fileID = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		fileID = msg.Document.FileID
	default:
		return text(chatID, msgHelp)
	}

	data, err := b.fetch(fileID)
	if err != nil {
		entry.WithError(err).Warn("download failed")
		return text(chatID, msgProcessError)
	}
	b.mu.Lock()
	s := b.sessionLocked(chatID)
	s.chart = data
	b.mu.Unlock()

	return b.analyze(chatID)
}

func (b *Bot) sessionLocked(chatID int64) *session {
	s, ok := b.sessions[chatID]
	if !ok {
		s = &session{eye: imaging.EyeFull}
		b.sessions[chatID] = s
	}
	return s
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) []tgbotapi.Chattable {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		return text(chatID, msgHelp)

	case "calibrate":
		pts, err := ParseCalibration(msg.CommandArguments())
		if err != nil {
			return text(chatID, msgCalibrateUsage)
		}
		b.mu.Lock()
		s := b.sessionLocked(chatID)
		s.calibration = &pts
		hasChart := s.chart != nil
		b.mu.Unlock()
		if !hasChart {
			return text(chatID, fmt.Sprintf("Calibration set: center %v, reference %v.", pts.Center, pts.Reference))
		}
		return b.analyze(chatID)

	case "eye":
		eye, err := imaging.ParseEye(msg.CommandArguments())
		if err != nil || strings.TrimSpace(msg.CommandArguments()) == "" {
			return text(chatID, msgEyeUsage)
		}
		b.mu.Lock()
		s := b.sessionLocked(chatID)
		s.eye = eye
		hasChart := s.chart != nil
		b.mu.Unlock()
		if !hasChart {
			return text(chatID, "Eye set to "+string(eye)+".")
		}
		return b.analyze(chatID)

	case "analyze", "analyse":
		return b.analyze(chatID)

	case "reset":
		b.mu.Lock()
		delete(b.sessions, chatID)
		b.mu.Unlock()
		return text(chatID, msgReset)
	}
	return text(chatID, msgUnknownCommand)
}

// analyze runs the chat's stored chart and returns the report and overlay.
func (b *Bot) analyze(chatID int64) []tgbotapi.Chattable {
	var s session
	b.mu.Lock()
	if cur, ok := b.sessions[chatID]; ok {
		s = *cur
	}
	b.mu.Unlock()

	if s.chart == nil {
		return text(chatID, msgSendChart)
	}
	entry := b.log.WithField("chat", chatID)

	dec, err := imaging.DecodeBytes(s.chart)
	if err != nil {
		entry.WithError(err).Info("undecodable chart")
		return text(chatID, msgProcessError)
	}
	rep, err := chart.Run(b.analyzer, chart.Request{
		Image:       dec.Image,
		Eye:         s.eye,
		Calibration: s.calibration,
		Overlay:     true,
	})
	if err != nil {
		entry.WithError(err).Warn("analysis failed")
		return text(chatID, msgProcessError)
	}

	replies := text(chatID, FormatReport(rep))
	if rep.OverlayImage != nil {
		data, err := imaging.PNGBytes(rep.OverlayImage)
		if err != nil {
			entry.WithError(err).Warn("overlay encoding failed")
			return replies
		}
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "overlay.png", Bytes: data})
		photo.Caption = "Measured isoptères"
		replies = append(replies, photo)
	}
	return replies
}

func (b *Bot) download(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	resp, err := b.client.Get(file.Link(b.api.Token))
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func text(chatID int64, s string) []tgbotapi.Chattable {
	return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, s)}
}

// ParseCalibration parses "cx cy rx ry" (commas also accepted).
func ParseCalibration(args string) (calibration.Points, error) {
	fields := strings.FieldsFunc(args, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(fields) != 4 {
		return calibration.Points{}, fmt.Errorf("want 4 coordinates, got %d", len(fields))
	}
	var v [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return calibration.Points{}, fmt.Errorf("invalid coordinate %q", f)
		}
		v[i] = n
	}
	return calibration.Points{
		Center:    image.Pt(v[0], v[1]),
		Reference: image.Pt(v[2], v[3]),
	}, nil
}

// FormatReport renders rep as a chat message.
func FormatReport(rep *chart.Report) string {
	var sb strings.Builder
	if rep.Status == pipeline.StatusNoIsopteres {
		sb.WriteString("No isoptères detected.")
	} else {
		sb.WriteString(rep.Interpretation)
		fmt.Fprintf(&sb, "\n\nIsoptères: %d\nMean radius: %s\nStd deviation: %s",
			rep.Count, formatRadius(rep.MeanRadius, rep.Unit), formatRadius(rep.StdRadius, rep.Unit))
	}
	if rep.Eye != imaging.EyeFull {
		fmt.Fprintf(&sb, "\nEye: %s", rep.Eye)
	}
	for _, w := range rep.Warnings {
		sb.WriteString("\nNote: " + w)
	}
	return sb.String()
}

func formatRadius(v float64, unit measure.Unit) string {
	if unit == measure.UnitDegrees {
		return strconv.FormatFloat(v, 'f', 1, 64) + "°"
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + " px"
}

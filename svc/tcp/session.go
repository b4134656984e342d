package tcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"

	"pastebox/cfg"
	"pastebox/metrics"
	"pastebox/pkg/domain"
	"pastebox/svc/svc"
	"pastebox/svc/util"
)

const (
	promptMode    = "Choose mode: GET | POST:\t"
	promptUID     = "Enter resource's UID: "
	promptContent = "Enter text to be saved: "

	msgGetAck     = "Processing your GET request...\n"
	msgPostAck    = "Processing your POST request...\n"
	msgExit       = "Exiting...\n"
	msgUnknown    = "Unavailable command!\n"
	msgGetFailed  = "\nCould not retrieve data.\n"
	msgSaveFailed = "Failed to save resource.\n"
)

// session is the per-connection protocol state: the socket, a growing
// line reader, and the shared service handle. Never shared across
// connections.
type session struct {
	conn        net.Conn
	paste       *svc.Paste
	reader      *bufio.Reader
	maxLine     int
	readTimeout time.Duration
	peer        string
}

func newSession(conn net.Conn, paste *svc.Paste, c *cfg.Cfg) *session {
	return &session{
		conn:        conn,
		paste:       paste,
		reader:      bufio.NewReader(conn),
		maxLine:     c.TCPMaxLine,
		readTimeout: c.TCPReadTimeout,
		peer:        conn.RemoteAddr().String(),
	}
}

// run drives the command loop. Every transition writes before it
// reads; exactly one exchange is in flight per connection at a time.
func (sess *session) run(ctx context.Context) {
	for {
		if err := sess.write(promptMode); err != nil {
			sess.logWriteError(err)
			return
		}
		line, err := sess.readLine()
		if err != nil {
			sess.logReadEnd(err)
			return
		}
		cmd := strings.ToUpper(line)
		switch cmd {
		case "GET":
			metrics.TCPCommands.WithLabelValues("get").Inc()
			if err := sess.getFlow(ctx); err != nil {
				sess.logReadEnd(err)
				return
			}
		case "POST":
			metrics.TCPCommands.WithLabelValues("post").Inc()
			if err := sess.postFlow(ctx); err != nil {
				sess.logReadEnd(err)
				return
			}
		case "EXIT":
			metrics.TCPCommands.WithLabelValues("exit").Inc()
			if err := sess.write(msgExit); err != nil {
				sess.logWriteError(err)
			}
			util.Info().Str("peer", sess.peer).Msg("client disconnected")
			return
		default:
			metrics.TCPCommands.WithLabelValues("unknown").Inc()
			if err := sess.write(msgUnknown); err != nil {
				sess.logWriteError(err)
				return
			}
		}
		util.Info().Str("peer", sess.peer).Str("command", cmd).Msg("command processed")
	}
}

// getFlow looks up one paste. Storage failures are reported on the
// wire and logged; they end the request, not the session.
func (sess *session) getFlow(ctx context.Context) error {
	if err := sess.write(msgGetAck + promptUID); err != nil {
		return err
	}
	id, err := sess.readLine()
	if err != nil {
		return err
	}
	paste, err := sess.paste.Get(ctx, id)
	switch {
	case err == nil:
		return sess.write(fmt.Sprintf("\nID: %s\nContent: %s\n", paste.ID, paste.Content))
	case errors.Is(err, domain.ErrNotFound):
		return sess.write(fmt.Sprintf("\nNo data associated with ID: %s", id))
	default:
		util.Error().Err(err).Str("peer", sess.peer).Str("op", "get").Str("id", id).Msg("storage error")
		return sess.write(msgGetFailed)
	}
}

// postFlow stores one line of text. The service layer already retried
// a duplicate id exactly once; any error arriving here is terminal
// for this request.
func (sess *session) postFlow(ctx context.Context) error {
	if err := sess.write(msgPostAck + promptContent); err != nil {
		return err
	}
	content, err := sess.readLine()
	if err != nil {
		return err
	}
	paste, err := sess.paste.Create(ctx, []byte(content), "text/plain")
	if err != nil {
		util.Error().Err(err).Str("peer", sess.peer).Str("op", "post").Msg("storage error")
		return sess.write(msgSaveFailed)
	}
	return sess.write(fmt.Sprintf("\nResource saved successfully with ID: %s", paste.ID))
}

// readLine accumulates bytes until a newline, growing as needed up to
// maxLine. Overlong lines fail explicitly instead of being silently
// truncated. EOF with no buffered bytes is the graceful disconnect.
func (sess *session) readLine() (string, error) {
	if sess.readTimeout > 0 {
		if err := sess.conn.SetReadDeadline(time.Now().Add(sess.readTimeout)); err != nil {
			return "", errors.Wrap(err, "set read deadline")
		}
	}
	var line []byte
	for {
		chunk, err := sess.reader.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > sess.maxLine {
			return "", domain.ErrLineTooLong
		}
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && len(line) > 0 {
			break
		}
		return "", err
	}
	return strings.TrimSpace(string(line)), nil
}

func (sess *session) write(msg string) error {
	_, err := sess.conn.Write([]byte(msg))
	return err
}

func (sess *session) logReadEnd(err error) {
	switch {
	case err == io.EOF:
		util.Info().Str("peer", sess.peer).Msg("client disconnected")
	case errors.Is(err, domain.ErrLineTooLong):
		util.Warn().Str("peer", sess.peer).Int("max_line", sess.maxLine).Msg("input line too long, closing session")
	default:
		util.Warn().Err(err).Str("peer", sess.peer).Msg("read failed, closing session")
	}
}

func (sess *session) logWriteError(err error) {
	util.Warn().Err(err).Str("peer", sess.peer).Msg("write failed, closing session")
}

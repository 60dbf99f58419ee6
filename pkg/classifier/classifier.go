package classifier

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// ErrUnavailable wraps every transport failure talking to the inference service.
var ErrUnavailable = errors.New("classifier unavailable")

// Detection is one object found in a frame. BBox is x1, y1, x2, y2.
type Detection struct {
	Class      string    `json:"class"`
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox"`
}

type Result struct {
	Detections []Detection `json:"detections"`
	Message    string      `json:"message,omitempty"`
}

// Labels returns the class names that had any positive detection.
func (r Result) Labels() []string {
	labels := make([]string, 0, len(r.Detections))
	for _, d := range r.Detections {
		if d.Confidence > 0 && d.Class != "" {
			labels = append(labels, d.Class)
		}
	}
	return labels
}

type IClassifier interface {
	Detect(ctx context.Context, frame []byte) (*Result, error)
	IsConnected() bool
	Reconnect() error
	Close()
}

type webSocketClient struct {
	url          string
	log          *logrus.Logger
	conn         *websocket.Conn
	mu           sync.Mutex
	roundTrip    sync.Mutex
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	done         chan struct{}
}

const defaultPoolSize = 4

// New returns a pool of clients for the PPE inference websocket at
// AI_PPE_DETECTION_URL. CLASSIFIER_POOL_SIZE sets how many frames can be in
// flight at once. The first dials happen in the background; Detect redials on
// demand.
func New(log *logrus.Logger) IClassifier {
	url := os.Getenv("AI_PPE_DETECTION_URL")
	if url == "" {
		url = "ws://localhost:8000/api/v1/ppe/ws"
	}

	size, err := strconv.Atoi(os.Getenv("CLASSIFIER_POOL_SIZE"))
	if err != nil || size < 1 {
		size = defaultPoolSize
	}

	clients := make([]*webSocketClient, size)
	for i := range clients {
		clients[i] = newWebSocketClient(url, log)
	}

	go func() {
		for _, client := range clients {
			if err := client.Reconnect(); err != nil {
				log.WithField("error", err.Error()).Warn("Initial connection to PPE classifier failed, will retry on demand")
				return
			}
		}
		log.WithField("connections", size).Info("Connected to PPE classifier")
	}()

	return newPool(clients)
}

func newWebSocketClient(url string, log *logrus.Logger) *webSocketClient {
	return &webSocketClient{
		url:          url,
		log:          log,
		pingInterval: 30 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
		done:         make(chan struct{}),
	}
}

func (c *webSocketClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *webSocketClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrUnavailable, c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.WithField("error", err.Error()).Debug("Error sending pong to classifier")
		}
		return nil
	})

	c.conn = conn
	go c.keepAlive(conn)

	return nil
}

func (c *webSocketClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
	default:
		close(c.done)
	}

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *webSocketClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}
		err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
		if err != nil {
			c.log.WithField("error", err.Error()).Warn("Classifier ping failed, dropping connection")
			conn.Close()
			c.conn = nil
		}
		c.mu.Unlock()

		if err != nil {
			return
		}
	}
}

func (c *webSocketClient) connection() (*websocket.Conn, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return conn, nil
	}

	if err := c.Reconnect(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, fmt.Errorf("%w: no connection", ErrUnavailable)
	}
	return c.conn, nil
}

func (c *webSocketClient) drop(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn = nil
	}
	conn.Close()
}

// Detect sends one base64 frame and waits for its detections. Round trips on
// one connection are serialized because responses are not tagged with a
// request id; the pool spreads sessions over several connections.
func (c *webSocketClient) Detect(ctx context.Context, frame []byte) (*Result, error) {
	c.roundTrip.Lock()
	defer c.roundTrip.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := c.connection()
	if err != nil {
		return nil, err
	}

	writeDeadline := time.Now().Add(c.writeTimeout)
	readDeadline := time.Now().Add(c.readTimeout)
	if deadline, ok := ctx.Deadline(); ok {
		if deadline.Before(writeDeadline) {
			writeDeadline = deadline
		}
		if deadline.Before(readDeadline) {
			readDeadline = deadline
		}
	}

	payload := base64.StdEncoding.EncodeToString(frame)

	conn.SetWriteDeadline(writeDeadline)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		c.drop(conn)
		return nil, fmt.Errorf("%w: send frame: %v", ErrUnavailable, err)
	}

	conn.SetReadDeadline(readDeadline)
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.drop(conn)
		return nil, fmt.Errorf("%w: read detections: %v", ErrUnavailable, err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var result Result
	if err := jsoniter.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("%w: decode detections: %v", ErrUnavailable, err)
	}

	c.log.WithFields(logrus.Fields{
		"frame_bytes": len(frame),
		"detections":  len(result.Detections),
	}).Debug("Received PPE detections")

	return &result, nil
}

package servo

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armlink/joint"
)

var testChannels = map[joint.Joint]int{
	joint.Base:     1,
	joint.Shoulder: 2,
	joint.Elbow:    3,
	joint.Wrist:    4,
	joint.Gripper:  5,
}

func newTestSSC32(t *testing.T, buf *bytes.Buffer) *SSC32 {
	t.Helper()
	c, err := NewSSC32(&SSC32Config{Port: buf, Channels: testChannels})
	require.NoError(t, err)
	c.pace.sleep = func(time.Duration) {}
	return c
}

func TestSSC32_Encode(t *testing.T) {
	c := newTestSSC32(t, &bytes.Buffer{})

	cases := []struct {
		angle float64
		pulse int
	}{
		{0, 500},
		{90, 1500},
		{180, 2500},
		{45, 1000},
		{30.6, 840},
	}
	for _, tc := range cases {
		f, err := c.Encode(joint.Base, tc.angle)
		require.NoError(t, err)
		assert.Equal(t, tc.pulse, f.Position, "angle %.1f", tc.angle)
		assert.Equal(t, 1, f.Channel)
	}
}

func TestSSC32_EncodeClampsLegalRange(t *testing.T) {
	c := newTestSSC32(t, &bytes.Buffer{})

	f, err := c.Encode(joint.Base, -20)
	require.NoError(t, err)
	assert.Equal(t, 500, f.Position)

	f, err = c.Encode(joint.Base, 200)
	require.NoError(t, err)
	assert.Equal(t, 2500, f.Position)
}

func TestSSC32_EncodeUnknownJoint(t *testing.T) {
	c := newTestSSC32(t, &bytes.Buffer{})
	_, err := c.Encode(joint.Joint("thumb"), 90)
	assert.Error(t, err)
}

func TestSSC32_SendGroupFrame(t *testing.T) {
	var buf bytes.Buffer
	c := newTestSSC32(t, &buf)

	err := c.Send([]Frame{
		{Channel: 1, Position: 1500},
		{Channel: 2, Position: 1833},
	})
	require.NoError(t, err)
	assert.Equal(t, "#1P1500#2P1833\r", buf.String())
}

func TestSSC32_SendGroupFrameWithTime(t *testing.T) {
	var buf bytes.Buffer
	c := newTestSSC32(t, &buf)

	err := c.Send([]Frame{
		{Channel: 1, Position: 1500, Time: 500},
		{Channel: 2, Position: 1833, Time: 1000},
	})
	require.NoError(t, err)
	// the longest per-frame time becomes the group time
	assert.Equal(t, "#1P1500#2P1833T1000\r", buf.String())
}

func TestSSC32_SendEmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	c := newTestSSC32(t, &buf)
	require.NoError(t, c.Send(nil))
	assert.Zero(t, buf.Len())
}

func TestSSC32_EStop(t *testing.T) {
	var buf bytes.Buffer
	c := newTestSSC32(t, &buf)
	require.NoError(t, c.EStop())
	assert.Equal(t, "STOP\r", buf.String())
}

// failWriter fails every write.
type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("port gone")
}

func TestSSC32_TransportError(t *testing.T) {
	c, err := NewSSC32(&SSC32Config{Port: failWriter{}, Channels: testChannels})
	require.NoError(t, err)
	c.pace.sleep = func(time.Duration) {}

	err = c.Send([]Frame{{Channel: 1, Position: 1500}})
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, c.EStop(), ErrTransport)
}

func TestSSC32_PacesConsecutiveWrites(t *testing.T) {
	var buf bytes.Buffer
	c := newTestSSC32(t, &buf)

	var slept time.Duration
	c.pace.sleep = func(d time.Duration) { slept += d }

	require.NoError(t, c.Send([]Frame{{Channel: 1, Position: 1500}}))
	require.NoError(t, c.Send([]Frame{{Channel: 1, Position: 1510}}))

	// the second write lands inside the 10ms floor and must wait it out
	assert.Greater(t, slept, time.Duration(0))
	assert.LessOrEqual(t, slept, DefaultMinDelay)
}

func TestNewSSC32_Validation(t *testing.T) {
	_, err := NewSSC32(&SSC32Config{Channels: testChannels})
	assert.Error(t, err)
	_, err = NewSSC32(&SSC32Config{Port: &bytes.Buffer{}})
	assert.Error(t, err)
}

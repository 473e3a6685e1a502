package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitWithOutput(t *testing.T) {
	t.Cleanup(func() { Init("propsdb", "info") })

	var buf bytes.Buffer
	InitWithOutput("landlord", "DEBUG", &buf)
	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())

	Logger.WithField("property_id", "p1").Debug("Loaded properties")
	assert.Contains(t, buf.String(), "[landlord] Loaded properties")
	assert.Contains(t, buf.String(), "property_id=p1")

	// re-initializing replaces the app name hook instead of stacking it
	buf.Reset()
	InitWithOutput("propsdb", "warn", &buf)
	Logger.Warn("slow query")
	assert.Contains(t, buf.String(), "[propsdb] slow query")
	assert.NotContains(t, buf.String(), "[landlord]")

	Logger.Info("hidden")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestInitInvalidLevel(t *testing.T) {
	t.Cleanup(func() { Init("propsdb", "info") })

	var buf bytes.Buffer
	InitWithOutput("propsdb", "loud", &buf)
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
	assert.Contains(t, buf.String(), "Invalid LOG_LEVEL 'loud'")

	InitWithOutput("propsdb", "", &buf)
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
}

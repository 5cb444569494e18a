package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/healthpredictor/core/metrics"
	"github.com/kilianp07/healthpredictor/core/model"
)

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
`

// TestIntegration publishes an assessment to a real Mosquitto broker.
func TestIntegration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()

	confPath := filepath.Join(t.TempDir(), "mosquitto.conf")
	if err := os.WriteFile(confPath, []byte(mosquittoConf), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			HostFilePath:      confPath,
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0644,
		}},
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("it-sub"))
	var connectErr error
	for i := 0; i < 5; i++ {
		tok := sub.Connect()
		tok.Wait()
		if connectErr = tok.Error(); connectErr == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if connectErr != nil {
		t.Fatalf("failed to connect: %v", connectErr)
	}
	defer sub.Disconnect(100)

	msgCh := make(chan []byte, 1)
	tok := sub.Subscribe("it/assessments/#", 1, func(_ paho.Client, m paho.Message) {
		msgCh <- m.Payload()
	})
	if tok.Wait() && tok.Error() != nil {
		t.Fatalf("failed to subscribe: %v", tok.Error())
	}

	pub, err := NewPahoPublisher(Config{Broker: broker, ClientID: "it-pub", TopicPrefix: "it/assessments", QoS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer pub.Disconnect()

	score := 77.0
	if err := pub.PublishAssessment(Assessment{
		AssessmentID: "a1", SessionID: "s1", Outcome: metrics.OutcomeSuccess,
		Score: &score, Category: "Mild Risk", Input: model.DefaultInput(), Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case payload := <-msgCh:
		var a Assessment
		if err := json.Unmarshal(payload, &a); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if a.AssessmentID != "a1" || a.Score == nil || *a.Score != 77 {
			t.Fatalf("unexpected assessment %+v", a)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

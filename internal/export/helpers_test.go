package export

import (
	"time"

	"github.com/iksnae/guidechat/internal/chat"
)

var testTime = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// testSession returns a session with one answered turn
func testSession(id string) chat.Session {
	return testSessionWithMessages(id, []chat.Message{
		{ID: "m1", Role: chat.RoleUser, Content: "Hello, how are you?", CreatedAt: testTime},
		{ID: "m2", Role: chat.RoleAssistant, Content: "I'm doing well, thank you!", CreatedAt: testTime},
	})
}

func testSessionWithMessages(id string, messages []chat.Message) chat.Session {
	return chat.Session{ID: id, State: chat.StateReady, Messages: messages}
}

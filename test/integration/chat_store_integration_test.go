package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"wa-concierge-be/internal/constant"
	"wa-concierge-be/internal/entity"
	"wa-concierge-be/internal/model"
	"wa-concierge-be/internal/pkg/logger"
	"wa-concierge-be/internal/repository/unitofwork"
	"wa-concierge-be/internal/service"
	"wa-concierge-be/pkg/database"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatStoreAgainstPostgres(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	require.NoError(t, gormDB.AutoMigrate(&model.ChatSession{}, &model.ChatMessage{}, &model.UserRequirement{}))

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	store := service.NewChatStoreService(uowFactory, logger.NewIsolatedLogger("logs/test.log"))
	ctx := context.Background()

	phone := "628" + time.Now().Format("150405.000")
	now := time.Now()

	sessionId, err := store.CreateSession(ctx, phone, "Integration Tester", now)
	require.NoError(t, err)

	defer func() {
		gormDB.Exec("DELETE FROM user_requirements WHERE chat_session_id = ?", sessionId)
		gormDB.Exec("DELETE FROM chat_messages WHERE chat_session_id = ?", sessionId)
		gormDB.Exec("DELETE FROM chat_sessions WHERE id = ?", sessionId)
	}()

	t.Run("Lookup by phone returns the new session", func(t *testing.T) {
		session, err := store.GetSessionByPhone(ctx, phone)
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, sessionId, session.Id)
		assert.Equal(t, constant.ChatSessionStatusActive, session.Status)
	})

	t.Run("Messages come back newest first", func(t *testing.T) {
		_, err := store.AppendMessage(ctx, sessionId, constant.ChatMessageSenderUser, "first", now, nil)
		require.NoError(t, err)
		_, err = store.AppendMessage(ctx, sessionId, constant.ChatMessageSenderBot, "second", now.Add(time.Second), map[string]interface{}{"intent": "general_talk"})
		require.NoError(t, err)

		messages, err := store.ListMessages(ctx, sessionId, 10)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "second", messages[0].Body)
		assert.Equal(t, "first", messages[1].Body)
	})

	t.Run("Requirements upsert merges field-wise", func(t *testing.T) {
		location := "Bali"
		require.NoError(t, store.UpsertRequirements(ctx, sessionId, &entity.UserRequirementPatch{Location: &location}))

		budget := "1000"
		require.NoError(t, store.UpsertRequirements(ctx, sessionId, &entity.UserRequirementPatch{Budget: &budget}))

		got, err := store.GetRequirements(ctx, sessionId)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.Location)
		assert.Equal(t, "Bali", *got.Location)
		require.NotNil(t, got.Budget)
		assert.Equal(t, "1000", *got.Budget)
	})

	t.Run("End is idempotent", func(t *testing.T) {
		endTime := time.Now()
		require.NoError(t, store.EndSession(ctx, sessionId, endTime, constant.ChatSessionEndReasonEnded))
		require.NoError(t, store.EndSession(ctx, sessionId, endTime.Add(time.Minute), constant.ChatSessionEndReasonInactivity))

		session, err := store.GetSession(ctx, sessionId)
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, constant.ChatSessionStatusEnded, session.Status)
		assert.Equal(t, constant.ChatSessionEndReasonEnded, session.EndReason)
		require.NotNil(t, session.EndedAt)
	})
}

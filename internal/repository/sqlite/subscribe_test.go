package sqlite_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeChat(t *testing.T) {
	ctx := context.Background()
	chatID := int64(-123456789)

	t.Run("error: exec query", func(t *testing.T) {
		// Arrange
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("INSERT OR IGNORE INTO subscriptions").WillReturnError(assert.AnError)

		// Act
		err := repo.SubscribeChat(ctx, chatID)

		// Assert
		require.Error(t, err)
		require.ErrorContains(t, err, "repository.sqlite.SubscribeChat")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		// Arrange
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("INSERT OR IGNORE INTO subscriptions").WillReturnResult(sqlmock.NewResult(1, 1))

		// Act
		err := repo.SubscribeChat(ctx, chatID)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUnsubscribeChat(t *testing.T) {
	ctx := context.Background()
	chatID := int64(-123456789)

	t.Run("error: exec query", func(t *testing.T) {
		// Arrange
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("DELETE FROM subscriptions WHERE chat_id").WillReturnError(assert.AnError)

		// Act
		err := repo.UnsubscribeChat(ctx, chatID)

		// Assert
		require.Error(t, err)
		require.ErrorContains(t, err, "repository.sqlite.UnsubscribeChat")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		// Arrange
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("DELETE FROM subscriptions WHERE chat_id").WillReturnResult(sqlmock.NewResult(1, 1))

		// Act
		err := repo.UnsubscribeChat(ctx, chatID)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetSubscribedChats(t *testing.T) {
	ctx := context.Background()
	chatID := int64(-123456789)

	t.Run("error: cannot execute query", func(t *testing.T) {
		// Arrange
		repo, mock := newMockedRepo(t)
		mock.ExpectQuery("SELECT chat_id FROM subscriptions").WillReturnError(assert.AnError)

		// Act
		_, err := repo.GetSubscribedChats(ctx)

		// Assert
		require.Error(t, err)
		require.ErrorContains(t, err, "repository.sqlite.GetSubscribedChats")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: failed to scan chat_id", func(t *testing.T) {
		// Arrange
		repo, mock := newMockedRepo(t)
		invalidRow := sqlmock.NewRows([]string{"chat_id"}).AddRow("invalid_id")
		mock.ExpectQuery("SELECT chat_id FROM subscriptions").WillReturnRows(invalidRow)

		// Act
		_, err := repo.GetSubscribedChats(ctx)

		// Assert
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to scan chat_id")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		// Arrange
		repo, mock := newMockedRepo(t)
		rows := sqlmock.NewRows([]string{"chat_id"}).AddRow(chatID).AddRow(int64(42))
		mock.ExpectQuery("SELECT chat_id FROM subscriptions").WillReturnRows(rows)

		// Act
		chats, err := repo.GetSubscribedChats(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []int64{chatID, 42}, chats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// chatcli is a terminal chat client. It logs in over REST, attaches to the
// relay, and lets you send and receive messages in one chat at a time.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/pkg/client"
	"github.com/parley-chat/parley/pkg/log"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8000", "server base URL")
		wsURL     = flag.String("ws", "ws://localhost:8000/ws", "relay websocket URL")
		email     = flag.String("email", "", "account email")
		password  = flag.String("password", "", "account password")
	)
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: chatcli -email you@example.com -password secret")
		os.Exit(1)
	}

	logger := log.New(log.Config{Level: "warn", Pretty: true, ServiceName: "chatcli"})
	ctx := context.Background()

	api := client.NewAPI(*serverURL)
	auth, err := api.Login(ctx, *email, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}
	me := auth.User
	fmt.Printf("logged in as %s\n", me.Name)

	notifications := client.NewNotificationAccumulator()

	handlers := client.Handlers{
		OnConnected: func() {
			fmt.Println("relay attached")
		},
		OnMessageReceived: func(msg domain.MessageResponse) {
			if notifications.Record(msg) {
				fmt.Printf("[%s] %s: %s\n", msg.Chat.ID, msg.Sender.Name, msg.Content)
				return
			}
			if n := notifications.Count(); n > 0 {
				fmt.Printf("(%d unread)\n", n)
			}
		},
		OnTyping: func(chatID string) {
			if chatID == notifications.ActiveChat() {
				fmt.Println("... typing")
			}
		},
		OnStopTyping: func(chatID string) {},
		OnProfileUpdated: func(userID string, updated domain.UserResponse) {
			fmt.Printf("profile updated: %s\n", updated.Name)
		},
	}

	conn, err := client.Dial(ctx, *wsURL, handlers, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "relay dial failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := conn.Setup(domain.UserRef{ID: me.ID, Name: me.Name}); err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}

	typing := client.NewTypingCoordinator(conn, 0)

	fmt.Println("commands: /chats, /open <chat-id>, /history, /dm <user-id>, /quit")
	fmt.Println("anything else is sent to the open chat")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return

		case line == "/chats":
			chats, err := api.ListChats(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "list chats failed: %v\n", err)
				continue
			}
			for _, c := range chats {
				name := c.Name
				if !c.IsGroup {
					for _, u := range c.Users {
						if u.ID != me.ID {
							name = u.Name
						}
					}
				}
				fmt.Printf("%s  %s\n", c.ID, name)
			}

		case strings.HasPrefix(line, "/open "):
			chatID := strings.TrimSpace(strings.TrimPrefix(line, "/open "))
			if err := conn.JoinRoom(chatID); err != nil {
				fmt.Fprintf(os.Stderr, "join failed: %v\n", err)
				continue
			}
			notifications.SetActiveChat(chatID)
			fmt.Printf("opened %s\n", chatID)

		case line == "/history":
			chatID := notifications.ActiveChat()
			if chatID == "" {
				fmt.Println("no chat open")
				continue
			}
			msgs, err := api.ListMessages(ctx, chatID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "history failed: %v\n", err)
				continue
			}
			for _, m := range msgs {
				fmt.Printf("%s %s: %s\n", m.CreatedAt.Format(time.Kitchen), m.Sender.Name, m.Content)
			}

		case strings.HasPrefix(line, "/dm "):
			userID := strings.TrimSpace(strings.TrimPrefix(line, "/dm "))
			chat, err := api.AccessChat(ctx, userID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "dm failed: %v\n", err)
				continue
			}
			if err := conn.JoinRoom(chat.ID); err != nil {
				fmt.Fprintf(os.Stderr, "join failed: %v\n", err)
				continue
			}
			notifications.SetActiveChat(chat.ID)
			fmt.Printf("opened %s\n", chat.ID)

		default:
			chatID := notifications.ActiveChat()
			if chatID == "" {
				fmt.Println("open a chat first (/open or /dm)")
				continue
			}
			typing.Keystroke(chatID)
			msg, err := api.SendMessage(ctx, chatID, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
				continue
			}
			typing.MessageSent(chatID)
			if err := conn.SendMessage(*msg); err != nil {
				fmt.Fprintf(os.Stderr, "relay forward failed: %v\n", err)
			}
		}
	}
}

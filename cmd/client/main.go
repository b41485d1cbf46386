package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/client"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/pkg/logger"
)

var (
	addr = flag.String("addr", "http://localhost:5000", "chat server base URL")
	room = flag.String("room", "General", "room to join (General, Tech Talk, Random)")
)

// bellNotifier rings the terminal bell for messages arriving while the
// client is backgrounded.
type bellNotifier struct{}

func (bellNotifier) Notify(title, body string) {
	fmt.Printf("\n[notification] %s: %s\n", title, body)
}

func (bellNotifier) Beep() { fmt.Print("\a") }

func main() {
	flag.Parse()

	username := prompt("Enter your username: ")
	if username == "" {
		log.Fatal("a username is required")
	}

	mirror := client.NewMirror(bellNotifier{})
	c, err := client.New(*addr, mirror, logger.NewLogger("warn"))
	if err != nil {
		log.Fatalf("bad server address: %v", err)
	}
	c.OnEvent = printEvent(mirror)

	if err := c.Connect(context.Background(), username, *room); err != nil {
		log.Fatalf("could not connect: %v", err)
	}
	defer c.Close()

	fmt.Printf("Joined #%s as %s. Type a message, or /help for commands.\n", *room, username)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-interrupt:
			fmt.Println("\nLeaving...")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "/") {
				if quit := runCommand(c, mirror, line); quit {
					return
				}
				continue
			}
			if _, err := c.SendMessage(line); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}
		}
	}
}

func runCommand(c *client.Client, mirror *client.Mirror, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		fmt.Println(`/join <room>         switch rooms
/pm <id> <text>      private message a connection id
/react <id> <emoji>  toggle a reaction
/read                mark held history as read
/history             load an older page of messages
/users               list connected users
/quit                leave`)

	case "/join":
		if len(fields) < 2 {
			fmt.Println("usage: /join <room>")
			return false
		}
		target := strings.Join(fields[1:], " ")
		if err := c.JoinRoom(target); err != nil {
			fmt.Printf("join failed: %v\n", err)
			return false
		}
		fmt.Printf("Joined #%s\n", target)

	case "/pm":
		if len(fields) < 3 {
			fmt.Println("usage: /pm <id> <text>")
			return false
		}
		if _, err := c.SendPrivate(fields[1], strings.Join(fields[2:], " ")); err != nil {
			fmt.Printf("send failed: %v\n", err)
		}

	case "/react":
		if len(fields) < 3 {
			fmt.Println("usage: /react <id> <emoji>")
			return false
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Println("message id must be a number")
			return false
		}
		if err := c.React(id, fields[2]); err != nil {
			fmt.Printf("react failed: %v\n", err)
		}

	case "/read":
		var last int64
		for _, e := range mirror.Messages() {
			if !e.System && !e.IsPrivate && e.ID > last {
				last = e.ID
			}
		}
		if last > 0 {
			if err := c.MarkRead(last); err != nil {
				fmt.Printf("read receipt failed: %v\n", err)
			}
		}

	case "/history":
		if err := c.LoadOlder(context.Background()); err != nil {
			fmt.Printf("history failed: %v\n", err)
			return false
		}
		for _, e := range mirror.Messages() {
			printEntry(e)
		}

	case "/users":
		for _, u := range mirror.Users() {
			fmt.Printf("  %s (%s) in #%s\n", u.Username, u.ID, u.Room)
		}

	case "/quit":
		return true

	default:
		fmt.Printf("unknown command %s\n", fields[0])
	}
	return false
}

// printEvent renders live traffic as it lands in the mirror.
func printEvent(mirror *client.Mirror) func(domain.Frame) {
	return func(frame domain.Frame) {
		switch frame.Event {
		case domain.EventConnected:
			var ev domain.ConnectedEvent
			if json.Unmarshal(frame.Data, &ev) == nil {
				fmt.Printf("Connected, your id is %s\n", ev.ID)
			}

		case domain.EventReceiveMessage, domain.EventPrivateMessage:
			var msg domain.Message
			if json.Unmarshal(frame.Data, &msg) != nil {
				return
			}
			if msg.SenderID == mirror.SelfID() {
				return
			}
			printEntry(client.Entry{Message: msg})

		case domain.EventUserJoined:
			var ev domain.UserEvent
			if json.Unmarshal(frame.Data, &ev) == nil {
				fmt.Printf("* %s joined the room\n", ev.Username)
			}

		case domain.EventUserLeft:
			var ev domain.UserEvent
			if json.Unmarshal(frame.Data, &ev) == nil {
				fmt.Printf("* %s left the room\n", ev.Username)
			}

		case domain.EventTypingUsers:
			var users []string
			if json.Unmarshal(frame.Data, &users) == nil && len(users) > 0 {
				fmt.Printf("* typing: %s\n", strings.Join(users, ", "))
			}
		}
	}
}

func printEntry(e client.Entry) {
	if e.System {
		fmt.Printf("* %s\n", e.Message.Message)
		return
	}
	tag := ""
	if e.IsPrivate {
		tag = " (private)"
	}
	if e.FileName != "" {
		tag += fmt.Sprintf(" [file: %s]", e.FileName)
	}
	fmt.Printf("[%d] %s%s: %s\n", e.ID, e.Sender, tag, e.Message.Message)
}

func prompt(label string) string {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print(label)
	scanner.Scan()
	return strings.TrimSpace(scanner.Text())
}

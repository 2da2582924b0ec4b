// Package command parses post-login text frames into a closed command type
// and dispatches them against the registry, directory and store.
package command

import "strings"

// Kind discriminates the top-level command variants.
type Kind int

const (
	KindUnknown Kind = iota
	KindHeartbeat
	KindWho
	KindPrivate
	KindProject
	KindLogout
)

// ProjectOp discriminates /project subcommands.
type ProjectOp int

const (
	OpUnknown ProjectOp = iota
	OpHelp
	OpCreate
	OpJoin
	OpAdd
	OpKick
	OpLeave
	OpList
	OpMessage
	OpInfo
	OpFiles
	OpUpload
	OpNotifications
)

// Command is one parsed input frame. Which fields are meaningful depends on
// Kind: Target/Text for private messages, Op/Name/Arg/Text for project
// commands.
type Command struct {
	Kind   Kind
	Target string // private-message recipient
	Text   string // private or project message body
	Op     ProjectOp
	Name   string // project name
	Arg    string // target user or filename
}

// Parse classifies one inbound frame. Keywords are case-sensitive except the
// heartbeat tokens. A /project subcommand with too few arguments parses as
// OpUnknown and gets the generic "unknown command" reply.
func Parse(msg string) Command {
	switch strings.ToLower(msg) {
	case "hi", "here", "hello":
		return Command{Kind: KindHeartbeat}
	}
	switch {
	case msg == "who":
		return Command{Kind: KindWho}
	case msg == "logout":
		return Command{Kind: KindLogout}
	case strings.HasPrefix(msg, "@"):
		return parsePrivate(msg)
	case strings.HasPrefix(msg, "/project"):
		return parseProject(msg)
	default:
		return Command{Kind: KindUnknown}
	}
}

func parsePrivate(msg string) Command {
	parts := strings.SplitN(msg, " ", 2)
	if len(parts) < 2 {
		// "@user" with no message; dispatcher replies with usage help
		return Command{Kind: KindPrivate}
	}
	return Command{
		Kind:   KindPrivate,
		Target: strings.TrimPrefix(parts[0], "@"),
		Text:   parts[1],
	}
}

func parseProject(msg string) Command {
	parts := strings.Fields(msg)
	if len(parts) < 2 {
		return Command{Kind: KindProject, Op: OpHelp}
	}
	c := Command{Kind: KindProject}
	switch parts[1] {
	case "help":
		c.Op = OpHelp
	case "list":
		c.Op = OpList
	case "notifications":
		c.Op = OpNotifications
	case "create":
		if len(parts) >= 3 {
			c.Op, c.Name = OpCreate, parts[2]
		}
	case "join":
		if len(parts) >= 3 {
			c.Op, c.Name = OpJoin, parts[2]
		}
	case "leave":
		if len(parts) >= 3 {
			c.Op, c.Name = OpLeave, parts[2]
		}
	case "info":
		if len(parts) >= 3 {
			c.Op, c.Name = OpInfo, parts[2]
		}
	case "files":
		if len(parts) >= 3 {
			c.Op, c.Name = OpFiles, parts[2]
		}
	case "add":
		if len(parts) >= 4 {
			c.Op, c.Name, c.Arg = OpAdd, parts[2], parts[3]
		}
	case "kick":
		if len(parts) >= 4 {
			c.Op, c.Name, c.Arg = OpKick, parts[2], parts[3]
		}
	case "upload":
		if len(parts) >= 4 {
			c.Op, c.Name, c.Arg = OpUpload, parts[2], parts[3]
		}
	case "message":
		if len(parts) >= 4 {
			c.Op, c.Name, c.Text = OpMessage, parts[2], strings.Join(parts[3:], " ")
		}
	}
	return c
}

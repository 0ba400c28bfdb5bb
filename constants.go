package sirc

// irc commands which may be sent or received by the client.
const (
	CmdJoin    = "JOIN"    // Join a channel.
	CmdMode    = "MODE"    // Channel or user mode change.
	CmdNick    = "NICK"    // Define a nickname.
	CmdNotice  = "NOTICE"  // Send a notice message to specific users or channels.
	CmdPart    = "PART"    // Leave a channel.
	CmdPass    = "PASS"    // Set a connection password.
	CmdPing    = "PING"    // Test for the presence of an active client or server.
	CmdPong    = "PONG"    // Reply to a PING message.
	CmdPrivmsg = "PRIVMSG" // Send private messages between users, as well as to send messages to channels.
)

// irc connection reply codes.
const (
	RplWelcome  = 1 // "Welcome, GLHF!"
	RplYourHost = 2 // "Your host is tmi.twitch.tv"
	RplCreated  = 3 // "This server is rather new"
	RplMyInfo   = 4 // "-"
)

// irc command reply codes.
const (
	RplNamReply          = 353 // "<nick> = <channel> :<nick list>" (twitch form)
	RplEndOfNames        = 366 // "<channel> :End of /NAMES list"
	RplMOTD              = 372 // ":- <text>"
	RplMOTDStart         = 375 // ":- <server> Message of the day - "
	RplEndOfMOTD         = 376 // ":End of MOTD command"
	RplErrUnknownCommand = 421 // "<command> :Unknown command"
)

// Twitch mode flags tracked by the client.
const (
	modeOpAdd    = "+o"
	modeOpRemove = "-o"
)

// loginFailure is the NOTICE parameter list twitch sends for a rejected PASS/NICK.
var loginFailure = Params{"*", "Login unsuccessful"}

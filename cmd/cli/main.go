package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluxcd/pkg/lockedfile"
	"github.com/nickyhof/SQLitePlus"
	"github.com/nickyhof/SQLitePlus/core"
	"github.com/nickyhof/SQLitePlus/db"
	"github.com/nickyhof/SQLitePlus/op"
	"github.com/nickyhof/SQLitePlus/ps"
	"github.com/nickyhof/SQLitePlus/sql"
	"github.com/sirupsen/logrus"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

const maxHistory = 1000

// Version is set at build time via -ldflags
var Version = SQLitePlus.Version

// CLI holds the CLI state
type CLI struct {
	session     *db.Session
	archive     *ps.Archive
	identity    core.Identity
	remote      db.RemoteConfig
	gitAuth     *ps.RemoteAuth
	out         io.Writer
	bindings    []string // applied to the next statement, then cleared
	history     []string
	historyFile string
}

func main() {
	path := flag.String("path", "", "Database file (in-memory when empty)")
	archiveDir := flag.String("archiveDir", "", "Directory of the snapshot archive (no archive when empty)")
	gitUrl := flag.String("gitUrl", "", "Git URL to clone the snapshot archive from")
	sqlFile := flag.String("sqlFile", "", "SQL file to execute (non-interactive)")
	userName := flag.String("name", "SQLitePlus", "User name for snapshots")
	userEmail := flag.String("email", "cli@sqliteplus.local", "User email for snapshots")
	passphrase := flag.String("passphrase", "", "Passphrase sealing backups")
	s3Region := flag.String("s3Region", "", "Region for s3:// backups")
	s3Endpoint := flag.String("s3Endpoint", "", "Custom S3-compatible endpoint")
	gitToken := flag.String("gitToken", "", "Token for pushing the snapshot archive")
	verbose := flag.Bool("verbose", false, "Log session events")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	printBanner(os.Stdout)

	var archive *ps.Archive
	if *archiveDir != "" {
		var gitUrlPtr *string
		if *gitUrl != "" {
			gitUrlPtr = gitUrl
		}
		var err error
		archive, err = ps.NewFileArchive(*archiveDir, gitUrlPtr)
		if err != nil {
			fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		fmt.Printf("%sSnapshots archived in: %s%s\n", SuccessColor, *archiveDir, ResetColor)
	}

	dbPath := *path
	if dbPath == "" {
		if archive != nil {
			fmt.Printf("%sError: -archiveDir needs a database file (-path)%s\n", ErrorColor, ResetColor)
			os.Exit(1)
		}
		dbPath = ":memory:"
		fmt.Printf("%sUsing in-memory database%s\n", SuccessColor, ResetColor)
	} else {
		fmt.Printf("%sUsing database file: %s%s\n", SuccessColor, dbPath, ResetColor)
	}

	identity := core.Identity{Name: *userName, Email: *userEmail}
	session, err := SQLitePlus.Open(archive).Session(dbPath, identity)
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}

	cli := &CLI{
		session:     session,
		archive:     archive,
		identity:    identity,
		out:         os.Stdout,
		historyFile: getHistoryPath(),
		remote: db.RemoteConfig{
			Region:     *s3Region,
			Endpoint:   *s3Endpoint,
			Passphrase: *passphrase,
		},
	}
	if *gitToken != "" {
		cli.gitAuth = &ps.RemoteAuth{Type: ps.AuthTypeToken, Token: *gitToken}
	}
	defer session.Close()

	cli.loadHistory()

	if *sqlFile != "" {
		failed, err := cli.importFile(*sqlFile)
		if err == nil {
			err = cli.session.Commit()
		}
		if err != nil {
			fmt.Printf("%sError importing file: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	cli.run(os.Stdin)
	cli.saveHistory()
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w)
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("SQLitePlus v%s", Version)
	padding := max(bannerWidth-len(versionLine)-2, 0)
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Fprintf(w, "%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintf(w, "%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Fprintf(w, "%s%s║   SQLite with implicit transactions   ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintf(w, "%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Type .help for commands, .quit to exit")
	fmt.Fprintln(w, "Changes are kept until .commit; .quit discards uncommitted changes")
	fmt.Fprintln(w)
}

func (cli *CLI) run(in io.Reader) {
	reader := bufio.NewReader(in)
	var buffer strings.Builder

	for {
		fmt.Fprint(cli.out, cli.getPrompt(buffer.Len() > 0))

		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			fmt.Fprintf(cli.out, "\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			return
		}
		input = strings.TrimRight(input, "\r\n")

		if strings.TrimSpace(input) == "" {
			continue
		}

		if buffer.Len() == 0 && strings.HasPrefix(strings.TrimSpace(input), ".") {
			if cli.handleCommand(input) {
				return
			}
			continue
		}

		buffer.WriteString(input)
		if !sql.Complete(buffer.String()) {
			buffer.WriteString("\n")
			continue
		}

		text := buffer.String()
		buffer.Reset()
		cli.addToHistory(strings.TrimSpace(text))

		for _, stmt := range sql.Split(text) {
			cli.execute(stmt)
		}
	}
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s     ...>%s ", PromptColor, ResetColor)
	}
	bound := ""
	if len(cli.bindings) > 0 {
		bound = fmt.Sprintf(" [%d bound]", len(cli.bindings))
	}
	return fmt.Sprintf("%ssqliteplus%s>%s ", PromptColor, bound, ResetColor)
}

// execute runs one statement, applying pending bindings and turning
// transaction-control statements into session commits and rollbacks.
func (cli *CLI) execute(stmt string) {
	switch sql.TransactionVerb(stmt) {
	case sql.VerbCommit:
		cli.commit()
		return
	case sql.VerbRollback:
		cli.rollback()
		return
	case sql.VerbBegin:
		cli.printSuccess("A transaction is always open; use .commit or .rollback")
		return
	}

	var err error
	if len(cli.bindings) == 0 {
		err = cli.session.ExecuteString(stmt)
	} else {
		err = cli.session.Execute(sql.NewTemplate(stmt, cli.bindings...))
		cli.bindings = nil
	}
	if err != nil {
		cli.printError(err)
		return
	}
	cli.session.Display(cli.out)
}

func (cli *CLI) commit() {
	if err := cli.session.Commit(); err != nil {
		cli.printError(err)
		return
	}
	msg := "Committed"
	if cli.archive != nil {
		msg += " (snapshot " + cli.archive.LatestTransaction().ShortId() + ")"
	}
	cli.printSuccess(msg)
}

func (cli *CLI) rollback() {
	if err := cli.session.Rollback(); err != nil {
		cli.printError(err)
		return
	}
	cli.printSuccess("Rolled back")
}

func (cli *CLI) printError(err error) {
	fmt.Fprintf(cli.out, "%s✗ Error: %s%s\n", ErrorColor, db.Describe(err), ResetColor)
}

func (cli *CLI) printSuccess(msg string) {
	fmt.Fprintf(cli.out, "%s✓ %s%s\n", SuccessColor, msg, ResetColor)
}

// handleCommand runs a dot command and reports whether the CLI should exit.
func (cli *CLI) handleCommand(input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return false
	}
	args := parts[1:]

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		fmt.Fprintf(cli.out, "%sGoodbye!%s\n", SuccessColor, ResetColor)
		return true

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".tables":
		cli.showTables()

	case ".schema":
		if len(args) > 0 {
			cli.describeTable(args[0])
		} else {
			cli.showSchema()
		}

	case ".commit":
		cli.commit()

	case ".rollback":
		cli.rollback()

	case ".bind":
		cli.bindings = append([]string(nil), args...)
		if len(args) == 0 {
			cli.printSuccess("Bindings cleared")
		} else {
			cli.printSuccess(fmt.Sprintf("%d binding(s) set for the next statement", len(args)))
		}

	case ".bindings":
		if len(cli.bindings) == 0 {
			fmt.Fprintln(cli.out, "No bindings")
		}
		for i, b := range cli.bindings {
			fmt.Fprintf(cli.out, "  %d  '%s'\n", i+1, b)
		}

	case ".backup":
		if len(args) != 1 {
			cli.printUsage(".backup <path|file://...|s3://bucket/key>")
			break
		}
		if err := cli.session.Backup(context.Background(), args[0], &cli.remote); err != nil {
			cli.printError(err)
			break
		}
		cli.printSuccess("Backup written to " + args[0])

	case ".restore":
		if len(args) != 2 {
			cli.printUsage(".restore <url> <file>")
			break
		}
		if err := db.Restore(context.Background(), args[0], args[1], &cli.remote); err != nil {
			cli.printError(err)
			break
		}
		cli.printSuccess("Restored to " + args[1])

	case ".snapshot":
		cli.snapshot(args)

	case ".log":
		cli.showLog()

	case ".tags":
		cli.showTags()

	case ".checkout":
		if len(args) != 2 {
			cli.printUsage(".checkout <tag|snapshot> <file>")
			break
		}
		cli.checkout(args[0], args[1])

	case ".remote":
		cli.handleRemote(args)

	case ".push":
		remote := ps.DefaultRemote
		if len(args) > 0 {
			remote = args[0]
		}
		cli.push(remote)

	case ".clear", ".cls":
		fmt.Fprint(cli.out, "\033[H\033[2J")

	case ".history":
		cli.printHistory()

	case ".version":
		fmt.Fprintf(cli.out, "SQLitePlus version %s\n", Version)

	case ".import":
		if len(args) != 1 {
			cli.printUsage(".import <file.sql>")
			break
		}
		if _, err := cli.importFile(args[0]); err != nil {
			cli.printError(err)
		}

	default:
		fmt.Fprintf(cli.out, "%s✗ Unknown command: %s (type .help for commands)%s\n", ErrorColor, parts[0], ResetColor)
	}

	return false
}

func (cli *CLI) printUsage(usage string) {
	fmt.Fprintf(cli.out, "%s✗ Usage: %s%s\n", ErrorColor, usage, ResetColor)
}

func (cli *CLI) printHelp() {
	fmt.Fprintln(cli.out)
	fmt.Fprintf(cli.out, "%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(cli.out, "  .help, .h              Show this help message")
	fmt.Fprintln(cli.out, "  .quit, .exit           Exit, discarding uncommitted changes")
	fmt.Fprintln(cli.out, "  .tables                List tables")
	fmt.Fprintln(cli.out, "  .schema [table]        Show CREATE statements, or a table's columns")
	fmt.Fprintln(cli.out, "  .commit                Commit the open transaction")
	fmt.Fprintln(cli.out, "  .rollback              Discard the open transaction")
	fmt.Fprintln(cli.out, "  .bind <v1> <v2> ...    Bind values to ? in the next statement")
	fmt.Fprintln(cli.out, "  .bindings              Show pending bindings")
	fmt.Fprintln(cli.out, "  .backup <url>          Back up the committed database")
	fmt.Fprintln(cli.out, "  .restore <url> <file>  Restore a backup into a file")
	fmt.Fprintln(cli.out, "  .snapshot [tag]        Snapshot the committed database, optionally tagged")
	fmt.Fprintln(cli.out, "  .log                   List snapshots")
	fmt.Fprintln(cli.out, "  .tags                  List snapshot tags")
	fmt.Fprintln(cli.out, "  .checkout <ref> <file> Write a tagged or listed snapshot to a file")
	fmt.Fprintln(cli.out, "  .remote [add|remove]   List, add or remove archive remotes")
	fmt.Fprintln(cli.out, "  .push [remote]         Push snapshots and tags")
	fmt.Fprintln(cli.out, "  .import <file>         Execute SQL statements from a file")
	fmt.Fprintln(cli.out, "  .history               Show command history")
	fmt.Fprintln(cli.out, "  .clear                 Clear the screen")
	fmt.Fprintln(cli.out, "  .version               Show version info")
	fmt.Fprintln(cli.out)
	fmt.Fprintln(cli.out, "Statements end with ';' and may span lines. COMMIT and ROLLBACK")
	fmt.Fprintln(cli.out, "act like .commit and .rollback.")
	fmt.Fprintln(cli.out)
}

func (cli *CLI) showTables() {
	tables, err := op.Tables(cli.session)
	if err != nil {
		cli.printError(err)
		return
	}
	if len(tables) == 0 {
		fmt.Fprintln(cli.out, "No tables")
		return
	}
	for _, name := range tables {
		fmt.Fprintln(cli.out, name)
	}
}

func (cli *CLI) showSchema() {
	statements, err := op.GetDatabase(cli.session).Schema()
	if err != nil {
		cli.printError(err)
		return
	}
	for _, stmt := range statements {
		fmt.Fprintln(cli.out, stmt)
	}
}

func (cli *CLI) describeTable(name string) {
	table, err := op.Describe(cli.session, name)
	if err != nil {
		cli.printError(err)
		return
	}

	t := db.NewTable(cli.out)
	t.Header([]string{"column", "type", "not null", "default", "pk"})
	for _, col := range table.Columns {
		t.Row(core.Row{col.Name, col.Type, yesNo(col.NotNull), col.Default, yesNo(col.PrimaryKey)})
	}
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func (cli *CLI) snapshot(args []string) {
	if !cli.requireArchive() {
		return
	}

	txn, err := cli.archive.Snapshot(cli.session.Path(), cli.identity, "")
	if err != nil {
		cli.printError(err)
		return
	}
	msg := "Snapshot " + txn.ShortId()
	if len(args) > 0 {
		if err := cli.archive.Tag(args[0], &txn); err != nil {
			cli.printError(err)
			return
		}
		msg += " tagged " + args[0]
	}
	cli.printSuccess(msg)
}

func (cli *CLI) showLog() {
	if !cli.requireArchive() {
		return
	}
	latest := cli.archive.LatestTransaction()
	if latest.Id == "" {
		fmt.Fprintln(cli.out, "No snapshots")
		return
	}
	txns, err := cli.archive.TransactionsFrom(latest.Id)
	if err != nil {
		cli.printError(err)
		return
	}
	for _, txn := range txns {
		fmt.Fprintf(cli.out, "%s  %s  %s  %s\n", txn.ShortId(), txn.When.Format("2006-01-02 15:04:05"), txn.Author, txn.Message)
	}
}

func (cli *CLI) requireArchive() bool {
	if cli.archive == nil {
		fmt.Fprintf(cli.out, "%s✗ No archive configured (start with -archiveDir)%s\n", ErrorColor, ResetColor)
		return false
	}
	return true
}

func (cli *CLI) showTags() {
	if !cli.requireArchive() {
		return
	}
	tags, err := cli.archive.Tags()
	if err != nil {
		cli.printError(err)
		return
	}
	if len(tags) == 0 {
		fmt.Fprintln(cli.out, "No tags")
	}
	for _, tag := range tags {
		fmt.Fprintln(cli.out, tag)
	}
}

// resolveSnapshot finds a snapshot by tag name or by (abbreviated) id.
func (cli *CLI) resolveSnapshot(ref string) (ps.Transaction, error) {
	if txn, err := cli.archive.ResolveTag(ref); err == nil {
		return txn, nil
	}
	latest := cli.archive.LatestTransaction()
	if latest.Id == "" {
		return ps.Transaction{}, ps.ErrNoSnapshots
	}
	txns, err := cli.archive.TransactionsFrom(latest.Id)
	if err != nil {
		return ps.Transaction{}, err
	}
	for _, txn := range txns {
		if strings.HasPrefix(txn.Id, ref) {
			return txn, nil
		}
	}
	return ps.Transaction{}, fmt.Errorf("no snapshot or tag named %s", ref)
}

func (cli *CLI) checkout(ref, dest string) {
	if !cli.requireArchive() {
		return
	}
	txn, err := cli.resolveSnapshot(ref)
	if err != nil {
		cli.printError(err)
		return
	}
	if err := cli.archive.RestoreFile(txn, cli.session.Path(), dest); err != nil {
		cli.printError(err)
		return
	}
	cli.printSuccess(fmt.Sprintf("Snapshot %s written to %s", txn.ShortId(), dest))
}

func (cli *CLI) handleRemote(args []string) {
	if !cli.requireArchive() {
		return
	}
	switch {
	case len(args) == 0:
		remotes, err := cli.archive.ListRemotes()
		if err != nil {
			cli.printError(err)
			return
		}
		if len(remotes) == 0 {
			fmt.Fprintln(cli.out, "No remotes")
		}
		for _, r := range remotes {
			fmt.Fprintf(cli.out, "%s  %s\n", r.Name, strings.Join(r.URLs, ", "))
		}
	case args[0] == "add" && len(args) == 3:
		if err := cli.archive.AddRemote(args[1], args[2]); err != nil {
			cli.printError(err)
			return
		}
		cli.printSuccess("Remote " + args[1] + " added")
	case args[0] == "remove" && len(args) == 2:
		if err := cli.archive.RemoveRemote(args[1]); err != nil {
			cli.printError(err)
			return
		}
		cli.printSuccess("Remote " + args[1] + " removed")
	default:
		cli.printUsage(".remote [add <name> <url> | remove <name>]")
	}
}

func (cli *CLI) push(remote string) {
	if !cli.requireArchive() {
		return
	}
	if err := cli.archive.Push(remote, cli.gitAuth); err != nil {
		cli.printError(err)
		return
	}
	cli.printSuccess("Pushed to " + remote)
}

func (cli *CLI) addToHistory(cmd string) {
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)
	if len(cli.history) > maxHistory {
		cli.history = cli.history[len(cli.history)-maxHistory:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Fprintln(cli.out, "No command history")
		return
	}
	start := max(len(cli.history)-20, 0)
	for i := start; i < len(cli.history); i++ {
		fmt.Fprintf(cli.out, "  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sqliteplus_history")
}

// loadHistory reads the history file under a shared lock, so concurrent
// CLIs never see a half-written file.
func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}
	data, err := lockedfile.Read(cli.historyFile)
	if err != nil {
		return
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			cli.history = append(cli.history, line)
		}
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}
	start := max(len(cli.history)-maxHistory, 0)

	var buf bytes.Buffer
	for _, entry := range cli.history[start:] {
		// multi-line statements are stored on one line
		buf.WriteString(strings.ReplaceAll(entry, "\n", " "))
		buf.WriteByte('\n')
	}
	if err := lockedfile.Write(cli.historyFile, &buf, 0600); err != nil {
		fmt.Fprintf(cli.out, "%s✗ Failed to save history: %v%s\n", ErrorColor, err, ResetColor)
	}
}

// importFile executes every statement in a file inside the open
// transaction and returns how many failed.
func (cli *CLI) importFile(filename string) (int, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	successCount := 0
	errorCount := 0
	for i, stmt := range sql.Split(string(data)) {
		verb := sql.TransactionVerb(stmt)
		switch verb {
		case sql.VerbCommit:
			err = cli.session.Commit()
		case sql.VerbRollback:
			err = cli.session.Rollback()
		case sql.VerbBegin:
			err = nil
		default:
			err = cli.session.ExecuteString(stmt)
		}

		if err != nil {
			fmt.Fprintf(cli.out, "%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(stmt, 50), ResetColor)
			fmt.Fprintf(cli.out, "      Error: %s\n", db.Describe(err))
			errorCount++
			continue
		}
		successCount++

		detail := verb.String()
		if verb == sql.VerbNone {
			detail = cli.session.Result().Summary()
		}
		fmt.Fprintf(cli.out, "%s[%d] ✓ %s  %s%s\n", SuccessColor, i+1, truncate(stmt, 50), detail, ResetColor)
	}

	fmt.Fprintf(cli.out, "\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, successCount, errorCount, ResetColor)
	return errorCount, nil
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

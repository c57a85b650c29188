package ps

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
)

// Transaction identifies one snapshot commit.
type Transaction struct {
	Id      string
	When    time.Time
	Author  string // "Name <email>" format
	Message string
}

func (transaction Transaction) String() string {
	return fmt.Sprintf("Transaction{Id: %s, When: %s, Author: %s}", transaction.Id, transaction.When, transaction.Author)
}

// ShortId is the abbreviated commit hash.
func (transaction Transaction) ShortId() string {
	if len(transaction.Id) > 7 {
		return transaction.Id[:7]
	}
	return transaction.Id
}

func transactionOf(c *object.Commit) Transaction {
	author := ""
	if c.Author.Name != "" || c.Author.Email != "" {
		author = fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email)
	}
	return Transaction{
		Id:      c.Hash.String(),
		When:    c.Committer.When,
		Author:  author,
		Message: strings.TrimSpace(c.Message),
	}
}

// LatestTransaction returns the newest snapshot, or the zero Transaction
// when there is none.
func (a *Archive) LatestTransaction() Transaction {
	if !a.IsInitialized() {
		return Transaction{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	head, err := a.headCommit()
	if err != nil || head == nil {
		return Transaction{}
	}
	return transactionOf(head)
}

// TransactionsSince lists snapshots committed at or after asof, newest
// first.
func (a *Archive) TransactionsSince(asof time.Time) ([]Transaction, error) {
	return a.log(&git.LogOptions{Since: &asof})
}

// TransactionsFrom lists the snapshot with id and its ancestors, newest
// first.
func (a *Archive) TransactionsFrom(id string) ([]Transaction, error) {
	return a.log(&git.LogOptions{From: plumbing.NewHash(id)})
}

func (a *Archive) log(opts *git.LogOptions) ([]Transaction, error) {
	if err := a.ensureInitialized(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.repo.Head(); err != nil {
		return nil, nil
	}
	cIter, err := a.repo.Log(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer cIter.Close()

	var transactions []Transaction
	err = cIter.ForEach(func(c *object.Commit) error {
		transactions = append(transactions, transactionOf(c))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return transactions, nil
}

// Package journal records inbound messages in SQLite.
//
// A Recorder is a sockclient.MessageHandler bound to one subscription kind
// (broadcast topic or personal queue). Register it alongside the
// application's own handlers; it stores every message it is given and the
// status API reads them back with Recent.
//
// Only messages are journalled. Subscriptions live in memory and are not
// restored from the journal.
package journal

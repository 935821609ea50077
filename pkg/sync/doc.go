/*
The sync package implements the skill sync algorithm. It decides which skills
are out of date, and replaces their local copies with the contents of the
remote branch head.

A skill is classified by comparing the commit recorded at its last sync
against the current branch head:
1) New -- The skill has no manifest entry. It has never been synced.
2) Updated -- The branch head has moved since the skill was last synced.
3) Unchanged -- The local copy was synced from the current branch head.

Syncing replaces the skill directory wholesale. The old copy is removed
before the download so that files deleted upstream don't linger locally.
The manifest is only updated after the download succeeds, so a failed sync
leaves the skill marked out of date and it gets retried on the next run.
*/
package sync

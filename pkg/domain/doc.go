/*
Package domain contains the core domain models of the bartender dialog engine.

It defines the conversation session, its stack of resumable frames, the per-user
facts that outlive a single conversation, and the catalog and order records the
dialogs exchange. The package is kept free of I/O and persistence so that every
adapter (memory, file, Redis, SQL) serializes the same plain structures.

# Key Entities

  - Session: The persisted state of one conversation (frame stack + status).
  - Frame: One suspended unit of dialog logic, tagged by Kind and Handler.
  - UserFacts: Facts remembered about a user across conversations.
  - Classification: The intent and entities extracted from an inbound message.
  - Reply: A message the engine asks the transport to deliver.
*/
package domain

package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"yatube/app/models"
	"yatube/app/repositories"
)

// data is the shared in-memory state behind every mock repository, so
// cascades and cross-entity checks behave like the real stores.
type data struct {
	mutex sync.RWMutex

	users     map[int]models.User
	groups    map[int]models.Group
	posts     map[int]models.Post
	comments  map[int]models.Comment
	follows   map[[2]int]models.Follow
	flatPages map[string]models.FlatPage
	sessions  map[string]models.Session

	nextUser, nextGroup, nextPost, nextComment int
}

func newData() *data {
	d := &data{}
	d.reset()
	return d
}

func (d *data) reset() {
	d.users = make(map[int]models.User)
	d.groups = make(map[int]models.Group)
	d.posts = make(map[int]models.Post)
	d.comments = make(map[int]models.Comment)
	d.follows = make(map[[2]int]models.Follow)
	d.flatPages = make(map[string]models.FlatPage)
	d.sessions = make(map[string]models.Session)
	d.nextUser, d.nextGroup, d.nextPost, d.nextComment = 1, 1, 1, 1
}

// NewStore returns a Store whose repositories share one in-memory dataset.
func NewStore() *repositories.Store {
	d := newData()
	return &repositories.Store{
		Users:     &UserRepository{d: d},
		Groups:    &GroupRepository{d: d},
		Posts:     &PostRepository{d: d},
		Comments:  &CommentRepository{d: d},
		Follows:   &FollowRepository{d: d},
		FlatPages: &FlatPageRepository{d: d},
		Sessions:  &SessionRepository{d: d},
	}
}

// Clear drops every record held by the store's repositories.
func Clear(store *repositories.Store) {
	if p, ok := store.Posts.(*PostRepository); ok {
		p.d.mutex.Lock()
		p.d.reset()
		p.d.mutex.Unlock()
	}
}

type UserRepository struct {
	d *data
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	for _, u := range m.d.users {
		if u.Username == user.Username {
			return fmt.Errorf("username %q: %w", user.Username, repositories.ErrDuplicate)
		}
	}
	user.ID = m.d.nextUser
	m.d.nextUser++
	m.d.users[user.ID] = *user
	return nil
}

func (m *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	u, exists := m.d.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (m *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	for _, u := range m.d.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) Update(ctx context.Context, user *models.User) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, exists := m.d.users[user.ID]; !exists {
		return repositories.ErrNotFound
	}
	for id, u := range m.d.users {
		if id != user.ID && u.Username == user.Username {
			return repositories.ErrDuplicate
		}
	}
	m.d.users[user.ID] = *user
	return nil
}

type GroupRepository struct {
	d *data
}

func (m *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	for _, g := range m.d.groups {
		if g.Slug == group.Slug {
			return repositories.ErrDuplicate
		}
	}
	group.ID = m.d.nextGroup
	m.d.nextGroup++
	m.d.groups[group.ID] = *group
	return nil
}

func (m *GroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	g, exists := m.d.groups[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &g, nil
}

func (m *GroupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	for _, g := range m.d.groups {
		if g.Slug == slug {
			return &g, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *GroupRepository) List(ctx context.Context) ([]*models.Group, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	groups := make([]*models.Group, 0, len(m.d.groups))
	for _, g := range m.d.groups {
		g := g
		groups = append(groups, &g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Title < groups[j].Title })
	return groups, nil
}

func (m *GroupRepository) Delete(ctx context.Context, id int) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, exists := m.d.groups[id]; !exists {
		return repositories.ErrNotFound
	}
	for postID, p := range m.d.posts {
		if p.InGroup(id) {
			m.d.deletePost(postID)
		}
	}
	delete(m.d.groups, id)
	return nil
}

// PostRepository keeps posts in memory. Setting Err makes every call fail with it.
type PostRepository struct {
	d   *data
	Err error
}

// stored strips read-populated fields before a post is kept.
func stored(p *models.Post) models.Post {
	cp := *p
	cp.Author, cp.Group, cp.Comments, cp.CommentCount = nil, nil, nil, 0
	if p.GroupID != nil {
		id := *p.GroupID
		cp.GroupID = &id
	}
	return cp
}

func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if m.Err != nil {
		return m.Err
	}
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	post.ID = m.d.nextPost
	m.d.nextPost++
	m.d.posts[post.ID] = stored(post)
	return nil
}

func (m *PostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	p, exists := m.d.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (m *PostRepository) matching(filter repositories.PostFilter) []*models.Post {
	var posts []*models.Post
	for _, p := range m.d.posts {
		p := p
		if filter.Matches(&p) {
			posts = append(posts, &p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].PubDate.Equal(posts[j].PubDate) {
			return posts[i].PubDate.After(posts[j].PubDate)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts
}

func (m *PostRepository) List(ctx context.Context, filter repositories.PostFilter, limit, offset int) ([]*models.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	posts := m.matching(filter)
	if offset >= len(posts) {
		return []*models.Post{}, nil
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts, nil
}

func (m *PostRepository) Count(ctx context.Context, filter repositories.PostFilter) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	return len(m.matching(filter)), nil
}

func (m *PostRepository) Update(ctx context.Context, post *models.Post) error {
	if m.Err != nil {
		return m.Err
	}
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	current, exists := m.d.posts[post.ID]
	if !exists {
		return repositories.ErrNotFound
	}
	next := stored(post)
	next.AuthorID = current.AuthorID
	next.PubDate = current.PubDate
	m.d.posts[post.ID] = next
	return nil
}

func (m *PostRepository) Delete(ctx context.Context, id int) error {
	if m.Err != nil {
		return m.Err
	}
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, exists := m.d.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	m.d.deletePost(id)
	return nil
}

func (d *data) deletePost(id int) {
	for cid, c := range d.comments {
		if c.PostID == id {
			delete(d.comments, cid)
		}
	}
	delete(d.posts, id)
}

type CommentRepository struct {
	d *data
}

func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, exists := m.d.posts[comment.PostID]; !exists {
		return fmt.Errorf("post %d: %w", comment.PostID, repositories.ErrNotFound)
	}
	comment.ID = m.d.nextComment
	m.d.nextComment++
	cp := *comment
	cp.Author, cp.Post = nil, nil
	m.d.comments[comment.ID] = cp
	return nil
}

func (m *CommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	c, exists := m.d.comments[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (m *CommentRepository) ListByPost(ctx context.Context, postID int) ([]*models.Comment, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	comments := []*models.Comment{}
	for _, c := range m.d.comments {
		c := c
		if c.PostID == postID {
			comments = append(comments, &c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].Created.Equal(comments[j].Created) {
			return comments[i].Created.After(comments[j].Created)
		}
		return comments[i].ID > comments[j].ID
	})
	return comments, nil
}

func (m *CommentRepository) CountByPost(ctx context.Context, postID int) (int, error) {
	comments, err := m.ListByPost(ctx, postID)
	return len(comments), err
}

func (m *CommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	c, exists := m.d.comments[comment.ID]
	if !exists {
		return repositories.ErrNotFound
	}
	c.Text = comment.Text
	m.d.comments[comment.ID] = c
	return nil
}

func (m *CommentRepository) Delete(ctx context.Context, id int) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, exists := m.d.comments[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.d.comments, id)
	return nil
}

type FollowRepository struct {
	d *data
}

func (m *FollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	key := [2]int{follow.UserID, follow.AuthorID}
	if _, exists := m.d.follows[key]; !exists {
		m.d.follows[key] = *follow
	}
	return nil
}

func (m *FollowRepository) Delete(ctx context.Context, userID, authorID int) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	delete(m.d.follows, [2]int{userID, authorID})
	return nil
}

func (m *FollowRepository) Exists(ctx context.Context, userID, authorID int) (bool, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	_, exists := m.d.follows[[2]int{userID, authorID}]
	return exists, nil
}

func (m *FollowRepository) ListAuthorIDs(ctx context.Context, userID int) ([]int, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	ids := []int{}
	for key := range m.d.follows {
		if key[0] == userID {
			ids = append(ids, key[1])
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *FollowRepository) CountFollowers(ctx context.Context, authorID int) (int, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	n := 0
	for key := range m.d.follows {
		if key[1] == authorID {
			n++
		}
	}
	return n, nil
}

func (m *FollowRepository) CountFollowing(ctx context.Context, userID int) (int, error) {
	ids, err := m.ListAuthorIDs(ctx, userID)
	return len(ids), err
}

type FlatPageRepository struct {
	d *data
}

func (m *FlatPageRepository) Save(ctx context.Context, page *models.FlatPage) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	m.d.flatPages[page.URL] = *page
	return nil
}

func (m *FlatPageRepository) GetByURL(ctx context.Context, url string) (*models.FlatPage, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	p, exists := m.d.flatPages[url]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (m *FlatPageRepository) List(ctx context.Context) ([]*models.FlatPage, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	pages := make([]*models.FlatPage, 0, len(m.d.flatPages))
	for _, p := range m.d.flatPages {
		p := p
		pages = append(pages, &p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].URL < pages[j].URL })
	return pages, nil
}

func (m *FlatPageRepository) Delete(ctx context.Context, url string) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, exists := m.d.flatPages[url]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.d.flatPages, url)
	return nil
}

type SessionRepository struct {
	d *data
}

func (m *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	if _, exists := m.d.sessions[session.ID]; exists {
		return repositories.ErrDuplicate
	}
	m.d.sessions[session.ID] = *session
	return nil
}

func (m *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	m.d.mutex.RLock()
	defer m.d.mutex.RUnlock()

	s, exists := m.d.sessions[id]
	if !exists || s.IsExpired() {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (m *SessionRepository) Delete(ctx context.Context, id string) error {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	delete(m.d.sessions, id)
	return nil
}

func (m *SessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	m.d.mutex.Lock()
	defer m.d.mutex.Unlock()

	n := 0
	now := time.Now()
	for id, s := range m.d.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.d.sessions, id)
			n++
		}
	}
	return n, nil
}
